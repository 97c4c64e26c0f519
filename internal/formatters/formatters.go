package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"skillmatch/internal/scoring"
	"skillmatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResponse", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResponse", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "RolesResponse", &RolesTextFormatter{})
	registry.RegisterFormatter("markdown", "RolesResponse", &RolesMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResponse:
		return "AnalysisResponse"
	case types.RolesResponse:
		return "RolesResponse"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type.
// HTML is left unescaped so recommendation markup stays readable.
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

var (
	plainMarkup    = strings.NewReplacer("<strong>", "", "</strong>", "")
	markdownMarkup = strings.NewReplacer("<strong>", "**", "</strong>", "**")
)

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResponse)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResponse, got %T", data)
	}

	var output strings.Builder

	if result.Failed() {
		output.WriteString("=== ANALYSIS FAILED ===\n\n")
		output.WriteString(result.Error)
		output.WriteString("\n")
		return output.String(), nil
	}

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	if a := result.Analysis; a != nil {
		output.WriteString(fmt.Sprintf("Score: %s%%\n", scoring.FormatScore(*a)))
		output.WriteString(fmt.Sprintf("Matched: %d of %d target keywords\n\n", a.MatchCount, a.TotalTargetKeywords))
		writeTextList(&output, "Matching Keywords", a.MatchingKeywords)
		writeTextList(&output, "Missing Keywords", a.MissingKeywords)
	}

	if s := result.ResumeSummary; s != nil {
		output.WriteString("=== RESUME SUMMARY ===\n")
		output.WriteString(fmt.Sprintf("Words: %d\n", s.WordCount))
		output.WriteString(fmt.Sprintf("Keywords found: %d\n\n", s.KeywordCount))
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n")
		for i, recommendation := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, plainMarkup.Replace(recommendation)))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResponse"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	output.WriteString(title)
	output.WriteString(":\n")
	if len(items) == 0 {
		output.WriteString("  (none)\n\n")
		return
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResponse)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResponse, got %T", data)
	}

	var output strings.Builder

	if result.Failed() {
		output.WriteString("# Resume Analysis Failed\n\n")
		output.WriteString(result.Error)
		output.WriteString("\n")
		return output.String(), nil
	}

	output.WriteString("# Resume Analysis\n\n")
	if a := result.Analysis; a != nil {
		output.WriteString(fmt.Sprintf("**Score:** %s%%\n\n", scoring.FormatScore(*a)))
		output.WriteString(fmt.Sprintf("**Matched:** %d of %d target keywords\n\n", a.MatchCount, a.TotalTargetKeywords))
		writeMarkdownList(&output, "Matching Keywords", a.MatchingKeywords)
		writeMarkdownList(&output, "Missing Keywords", a.MissingKeywords)
	}

	if s := result.ResumeSummary; s != nil {
		output.WriteString("## Resume Summary\n\n")
		output.WriteString("| Words | Keywords found |\n")
		output.WriteString("|---|---|\n")
		output.WriteString(fmt.Sprintf("| %d | %d |\n\n", s.WordCount, s.KeywordCount))
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for i, recommendation := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, markdownMarkup.Replace(recommendation)))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResponse"
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	output.WriteString("## ")
	output.WriteString(title)
	output.WriteString("\n\n")
	if len(items) == 0 {
		output.WriteString("_None_\n\n")
		return
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- `%s`\n", item))
	}
	output.WriteString("\n")
}

// RolesTextFormatter handles text formatting for the role catalog
type RolesTextFormatter struct{}

func (rtf *RolesTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RolesResponse)
	if !ok {
		return "", fmt.Errorf("expected RolesResponse, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== TARGET ROLES ===\n\n")
	for _, role := range result.Roles {
		output.WriteString(fmt.Sprintf("%s %-16s %s\n", role.Icon, role.ID, role.Name))
	}
	return output.String(), nil
}

func (rtf *RolesTextFormatter) SupportedType() string {
	return "RolesResponse"
}

// RolesMarkdownFormatter handles markdown formatting for the role catalog
type RolesMarkdownFormatter struct{}

func (rmf *RolesMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RolesResponse)
	if !ok {
		return "", fmt.Errorf("expected RolesResponse, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Target Roles\n\n")
	output.WriteString("| | ID | Name |\n")
	output.WriteString("|---|---|---|\n")
	for _, role := range result.Roles {
		output.WriteString(fmt.Sprintf("| %s | `%s` | %s |\n", role.Icon, role.ID, role.Name))
	}
	return output.String(), nil
}

func (rmf *RolesMarkdownFormatter) SupportedType() string {
	return "RolesResponse"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
