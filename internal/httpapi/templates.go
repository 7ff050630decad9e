package httpapi

import _ "embed"

//go:embed templates/builder.tmpl
var builderTemplateHTML string
