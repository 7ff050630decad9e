package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/generator"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

const (
	generateCommandUseName          = "generate"
	generateCommandShortDescription = "Generate Streamlit code from an exported configuration"
	generateCommandLongDescription  = "Read an app_config.json exported by the builder and write the Streamlit application it describes"
	flagNameConfigurationFile       = "config"
	flagNameOutputFile              = "output"
	flagUsageConfigurationFile      = "path to an exported app_config.json"
	flagUsageOutputFile             = "file to write the generated code to; standard output when empty"
	generatedFilePermissions        = 0o644
	warningLineFormat               = "warning: %s\n"
	errorMessageReadConfiguration   = "read configuration"
	errorMessageGenerateCode        = "generate code"
	errorMessageWriteOutput         = "write output"
)

type generateOptions struct {
	configurationPath string
	outputPath        string
}

func newGenerateCommand() *cobra.Command {
	options := &generateOptions{}

	generateCommand := &cobra.Command{
		Use:   generateCommandUseName,
		Short: generateCommandShortDescription,
		Long:  generateCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runGenerate(options, command.OutOrStdout(), command.ErrOrStderr())
		},
	}

	generateCommand.Flags().StringVar(&options.configurationPath, flagNameConfigurationFile, "", flagUsageConfigurationFile)
	generateCommand.Flags().StringVar(&options.outputPath, flagNameOutputFile, "", flagUsageOutputFile)
	_ = generateCommand.MarkFlagRequired(flagNameConfigurationFile)

	return generateCommand
}

func runGenerate(options *generateOptions, standardOutput io.Writer, standardError io.Writer) error {
	configurationPath := strings.TrimSpace(options.configurationPath)
	document, readErr := os.ReadFile(configurationPath)
	if readErr != nil {
		return fmt.Errorf("%s: %w", errorMessageReadConfiguration, readErr)
	}

	configuration, parseErr := model.ParseConfiguration(document)
	if parseErr != nil {
		return fmt.Errorf("%s: %w", configurationPath, parseErr)
	}

	code, generateErr := generator.Generate(configuration)
	if generateErr != nil {
		return fmt.Errorf("%s: %w", errorMessageGenerateCode, generateErr)
	}

	for _, finding := range generator.Inspect(configuration) {
		fmt.Fprintf(standardError, warningLineFormat, finding.Message)
	}

	outputPath := strings.TrimSpace(options.outputPath)
	if outputPath == "" {
		if _, writeErr := io.WriteString(standardOutput, code); writeErr != nil {
			return fmt.Errorf("%s: %w", errorMessageWriteOutput, writeErr)
		}
		return nil
	}

	if writeErr := os.WriteFile(outputPath, []byte(code), generatedFilePermissions); writeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteOutput, writeErr)
	}
	return nil
}
