package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/standardize.md
var standardizePromptRaw string

// StandardizeTemplate is the parsed prompt for title/category normalization.
// Parsed once at package init; reused on every chunk.
var StandardizeTemplate = template.Must(template.New("standardize").Parse(standardizePromptRaw))
