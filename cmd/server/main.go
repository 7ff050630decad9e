package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/httpapi"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/storage"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/task"
)

const (
	commandUseName                     = "server"
	commandShortDescription            = "Run the Streamlit app builder"
	commandLongDescription             = "Launch the HTTP server that builds Streamlit dashboards and exports their configuration"
	missingConfigurationMessage        = "missing required configuration"
	loggerCreationErrorMessage         = "logger"
	logEventListening                  = "listening"
	logEventShutdown                   = "shutdown"
	logFieldAddress                    = "addr"
	logFieldServeMode                  = "serve_mode"
	flagNameApplicationAddress         = "app-addr"
	flagNameServeMode                  = "serve-mode"
	flagNameDatabaseDriver             = "db-driver"
	flagNameDatabaseDataSourceName     = "db-dsn"
	flagNameSessionSecret              = "session-secret"
	flagNameSessionTTL                 = "session-ttl"
	flagNameSessionPruneInterval       = "session-prune-interval"
	flagNameAllowedOrigins             = "allowed-origins"
	flagUsageApplicationAddress        = "address for the HTTP server to listen on"
	flagUsageServeMode                 = "route groups to serve: monolith, web or api"
	flagUsageDatabaseDriver            = "database driver for builder sessions"
	flagUsageDatabaseDataSourceName    = "database connection string for builder sessions"
	flagUsageSessionSecret             = "secret that signs the builder session cookie"
	flagUsageSessionTTL                = "idle time after which a builder session is discarded"
	flagUsageSessionPruneInterval      = "interval between idle session sweeps"
	flagUsageAllowedOrigins            = "comma separated origins allowed to call the builder API"
	environmentKeyApplicationAddress   = "APP_ADDR"
	environmentKeyServeMode            = "SERVE_MODE"
	environmentKeyDatabaseDriver       = "DB_DRIVER"
	environmentKeyDatabaseDataSource   = "DB_DSN"
	environmentKeySessionSecret        = "SESSION_SECRET"
	environmentKeySessionTTL           = "SESSION_TTL"
	environmentKeySessionPruneInterval = "SESSION_PRUNE_INTERVAL"
	environmentKeyAllowedOrigins       = "ALLOWED_ORIGINS"
	defaultApplicationAddress          = ":8080"
	defaultSessionTTL                  = 24 * time.Hour
	defaultSessionPruneInterval        = 15 * time.Minute
	loggerContextOpenDatabase          = "open_db"
	loggerContextAutoMigrate           = "migrate"
	loggerContextServer                = "server"
	readHeaderTimeoutSeconds           = 5
	shutdownTimeout                    = 10 * time.Second
	unexpectedArgumentsMessage         = "unexpected command arguments"
	commandInitializationFailure       = "failed to configure command"
	flagNotDefinedMessage              = "flag %s not defined"
	environmentConfigurationError      = "failed to apply environment configuration"
	invalidConfigurationMessage        = "invalid configuration"
	allowedOriginsSeparator            = ","
	sessionSecretMinimumLength         = 16
	sessionSecretTooShortMessageFormat = "%s must be at least %d bytes"
	nonPositiveDurationMessageFormat   = "%s must be positive"
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	ServeMode              ServeMode
	DatabaseDriverName     string
	DatabaseDataSourceName string
	SessionSecret          string
	SessionTTL             time.Duration
	SessionPruneInterval   time.Duration
	AllowedOrigins         []string
}

// DatabaseOpener opens a database connection for the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(newGenerateCommand())

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyServeMode, string(ServeModeMonolith))
	application.configurationLoader.SetDefault(environmentKeyDatabaseDriver, storage.DriverNameSQLite)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDataSource, storage.DefaultDataSourceName)
	application.configurationLoader.SetDefault(environmentKeySessionSecret, "")
	application.configurationLoader.SetDefault(environmentKeySessionTTL, defaultSessionTTL)
	application.configurationLoader.SetDefault(environmentKeySessionPruneInterval, defaultSessionPruneInterval)
	application.configurationLoader.SetDefault(environmentKeyAllowedOrigins, "")
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameServeMode, string(ServeModeMonolith), flagUsageServeMode)
	commandFlags.String(flagNameDatabaseDriver, storage.DriverNameSQLite, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDataSourceName, storage.DefaultDataSourceName, flagUsageDatabaseDataSourceName)
	commandFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)
	commandFlags.Duration(flagNameSessionTTL, defaultSessionTTL, flagUsageSessionTTL)
	commandFlags.Duration(flagNameSessionPruneInterval, defaultSessionPruneInterval, flagUsageSessionPruneInterval)
	commandFlags.String(flagNameAllowedOrigins, "", flagUsageAllowedOrigins)

	flagBindings := []struct {
		environmentKey string
		flagName       string
	}{
		{environmentKey: environmentKeyApplicationAddress, flagName: flagNameApplicationAddress},
		{environmentKey: environmentKeyServeMode, flagName: flagNameServeMode},
		{environmentKey: environmentKeyDatabaseDriver, flagName: flagNameDatabaseDriver},
		{environmentKey: environmentKeyDatabaseDataSource, flagName: flagNameDatabaseDataSourceName},
		{environmentKey: environmentKeySessionSecret, flagName: flagNameSessionSecret},
		{environmentKey: environmentKeySessionTTL, flagName: flagNameSessionTTL},
		{environmentKey: environmentKeySessionPruneInterval, flagName: flagNameSessionPruneInterval},
		{environmentKey: environmentKeyAllowedOrigins, flagName: flagNameAllowedOrigins},
	}

	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
	}

	for _, binding := range flagBindings {
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	if markErr := command.MarkFlagRequired(flagNameSessionSecret); markErr != nil {
		return markErr
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadServerConfig() (ServerConfig, error) {
	serveMode, serveModeErr := ParseServeMode(application.configurationLoader.GetString(environmentKeyServeMode))
	if serveModeErr != nil {
		return ServerConfig{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, serveModeErr)
	}

	return ServerConfig{
		ApplicationAddress:     application.configurationLoader.GetString(environmentKeyApplicationAddress),
		ServeMode:              serveMode,
		DatabaseDriverName:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDataSource)),
		SessionSecret:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret)),
		SessionTTL:             application.configurationLoader.GetDuration(environmentKeySessionTTL),
		SessionPruneInterval:   application.configurationLoader.GetDuration(environmentKeySessionPruneInterval),
		AllowedOrigins:         splitAllowedOrigins(application.configurationLoader.GetString(environmentKeyAllowedOrigins)),
	}, nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig, loadErr := application.loadServerConfig()
	if loadErr != nil {
		return loadErr
	}

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriverName,
		DataSourceName: serverConfig.DatabaseDataSourceName,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	sessionStore := storage.NewSessionStore(database)

	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	pruneJob := task.NewSessionPruneJob(sessionStore, logger, task.SessionPruneConfig{IdleTimeout: serverConfig.SessionTTL})
	pruneScheduler := task.NewScheduler(task.SessionPruneTaskName, serverConfig.SessionPruneInterval, pruneJob.Run, logger)
	pruneScheduler.Start(signalContext)
	defer pruneScheduler.Stop()

	router := buildRouter(logger, serverConfig, sessionStore)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	go func() {
		<-signalContext.Done()
		shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		logger.Info(logEventShutdown)
		if shutdownErr := httpServer.Shutdown(shutdownContext); shutdownErr != nil {
			logger.Warn(logEventShutdown, zap.Error(shutdownErr))
		}
	}()

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress), zap.String(logFieldServeMode, string(serverConfig.ServeMode)))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func buildRouter(logger *zap.Logger, serverConfig ServerConfig, sessionStore httpapi.BuilderSessionStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	sessionManager := httpapi.NewBuilderSessionManager(logger, sessionStore, []byte(serverConfig.SessionSecret), serverConfig.SessionTTL)

	if serverConfig.ServeMode.includesWeb() {
		pageHandlers := httpapi.NewBuilderPageHandlers(logger, sessionStore)
		registerFrontendRoutes(router, sessionManager, pageHandlers)
	}
	if serverConfig.ServeMode.includesAPI() {
		builderHandlers := httpapi.NewBuilderHandlers(logger, sessionStore)
		registerBackendRoutes(router, sessionManager, builderHandlers, serverConfig.AllowedOrigins)
	}

	return router
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.SessionSecret == "" {
		missingParameters = append(missingParameters, flagNameSessionSecret)
	}

	if len(missingParameters) > 0 {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}

	if len(configuration.SessionSecret) < sessionSecretMinimumLength {
		return fmt.Errorf("%s: "+sessionSecretTooShortMessageFormat, invalidConfigurationMessage, flagNameSessionSecret, sessionSecretMinimumLength)
	}
	if configuration.SessionTTL <= 0 {
		return fmt.Errorf("%s: "+nonPositiveDurationMessageFormat, invalidConfigurationMessage, flagNameSessionTTL)
	}
	if configuration.SessionPruneInterval <= 0 {
		return fmt.Errorf("%s: "+nonPositiveDurationMessageFormat, invalidConfigurationMessage, flagNameSessionPruneInterval)
	}

	return nil
}

func splitAllowedOrigins(rawOrigins string) []string {
	var origins []string
	for _, origin := range strings.Split(rawOrigins, allowedOriginsSeparator) {
		trimmedOrigin := strings.TrimSpace(origin)
		if trimmedOrigin != "" {
			origins = append(origins, trimmedOrigin)
		}
	}
	return origins
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
