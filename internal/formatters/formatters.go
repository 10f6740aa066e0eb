package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"jobgen/internal/types"

	"gopkg.in/yaml.v3"
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

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})
	registry.RegisterFormatter("text", "GenerationOutput", &GenerationTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerationOutput", &GenerationMarkdownFormatter{})
	registry.RegisterFormatter("text", "PromptPreview", &PromptTextFormatter{})
	registry.RegisterFormatter("markdown", "PromptPreview", &PromptMarkdownFormatter{})

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

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerationOutput, *types.GenerationOutput:
		return "GenerationOutput"
	case types.PromptPreview, *types.PromptPreview:
		return "PromptPreview"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var out strings.Builder
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

func generationOutput(data any) (types.GenerationOutput, error) {
	switch v := data.(type) {
	case types.GenerationOutput:
		return v, nil
	case *types.GenerationOutput:
		if v == nil {
			return types.GenerationOutput{}, fmt.Errorf("nil GenerationOutput")
		}
		return *v, nil
	default:
		return types.GenerationOutput{}, fmt.Errorf("expected GenerationOutput, got %T", data)
	}
}

// GenerationTextFormatter renders a generation as plain text. Structured
// results with a decoded profile are rendered section by section.
type GenerationTextFormatter struct{}

func (gtf *GenerationTextFormatter) Format(data any) (string, error) {
	result, err := generationOutput(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	if result.Profile == nil {
		output.WriteString("=== JOB DESCRIPTION ===\n\n")
		output.WriteString(strings.TrimSpace(result.Content))
		output.WriteString("\n")
		return output.String(), nil
	}

	p := result.Profile
	output.WriteString("=== JOB PROFILE ===\n")
	fmt.Fprintf(&output, "Title: %s\n\n", p.JobTitle)

	output.WriteString("=== DESCRIPTION ===\n")
	output.WriteString(p.EnhancedDescription)
	output.WriteString("\n\n")

	output.WriteString("=== SKILLS ===\n")
	writeTextList(&output, "Job-related skills", p.SkillCategories.JobRelatedSkills)
	writeTextList(&output, "General expertise", p.SkillCategories.GeneralExpertise)
	writeTextList(&output, "Soft skills", p.SkillCategories.SoftSkills)

	output.WriteString("=== KEY RESPONSIBILITIES ===\n")
	for i, r := range p.KeyResponsibilities {
		fmt.Fprintf(&output, "%d. %s\n", i+1, r)
	}

	return output.String(), nil
}

func (gtf *GenerationTextFormatter) SupportedType() string {
	return "GenerationOutput"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	fmt.Fprintf(output, "%s:\n", title)
	if len(items) == 0 {
		output.WriteString("  (none)\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "  - %s\n", item)
	}
	output.WriteString("\n")
}

// GenerationMarkdownFormatter renders a generation as markdown
type GenerationMarkdownFormatter struct{}

func (gmf *GenerationMarkdownFormatter) Format(data any) (string, error) {
	result, err := generationOutput(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	if result.Profile == nil {
		output.WriteString("# Job Description\n\n")
		if result.Model != "" {
			fmt.Fprintf(&output, "_Generated by %s_\n\n", result.Model)
		}
		output.WriteString(strings.TrimSpace(result.Content))
		output.WriteString("\n")
		return output.String(), nil
	}

	p := result.Profile
	fmt.Fprintf(&output, "# %s\n\n", p.JobTitle)
	output.WriteString("## Description\n\n")
	output.WriteString(p.EnhancedDescription)
	output.WriteString("\n\n")

	output.WriteString("## Skills\n\n")
	writeMarkdownList(&output, "Job-Related Skills", p.SkillCategories.JobRelatedSkills)
	writeMarkdownList(&output, "General Expertise", p.SkillCategories.GeneralExpertise)
	writeMarkdownList(&output, "Soft Skills", p.SkillCategories.SoftSkills)

	output.WriteString("## Key Responsibilities\n\n")
	for _, r := range p.KeyResponsibilities {
		fmt.Fprintf(&output, "- %s\n", r)
	}

	return output.String(), nil
}

func (gmf *GenerationMarkdownFormatter) SupportedType() string {
	return "GenerationOutput"
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	fmt.Fprintf(output, "### %s\n\n", title)
	if len(items) == 0 {
		output.WriteString("_None listed_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

func promptPreview(data any) (types.PromptPreview, error) {
	switch v := data.(type) {
	case types.PromptPreview:
		return v, nil
	case *types.PromptPreview:
		if v == nil {
			return types.PromptPreview{}, fmt.Errorf("nil PromptPreview")
		}
		return *v, nil
	default:
		return types.PromptPreview{}, fmt.Errorf("expected PromptPreview, got %T", data)
	}
}

// PromptTextFormatter prints a rendered prompt pair
type PromptTextFormatter struct{}

func (ptf *PromptTextFormatter) Format(data any) (string, error) {
	preview, err := promptPreview(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	if preview.SystemPrompt != "" {
		output.WriteString("=== SYSTEM ===\n")
		output.WriteString(preview.SystemPrompt)
		output.WriteString("\n\n")
	}
	output.WriteString("=== USER ===\n")
	output.WriteString(preview.UserPrompt)
	output.WriteString("\n")
	return output.String(), nil
}

func (ptf *PromptTextFormatter) SupportedType() string {
	return "PromptPreview"
}

// PromptMarkdownFormatter prints a rendered prompt pair as fenced blocks
type PromptMarkdownFormatter struct{}

func (pmf *PromptMarkdownFormatter) Format(data any) (string, error) {
	preview, err := promptPreview(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Prompt: %s\n\n", preview.Operation)
	if preview.SystemPrompt != "" {
		output.WriteString("## System\n\n````text\n")
		output.WriteString(preview.SystemPrompt)
		output.WriteString("\n````\n\n")
	}
	output.WriteString("## User\n\n````text\n")
	output.WriteString(preview.UserPrompt)
	output.WriteString("\n````\n")
	return output.String(), nil
}

func (pmf *PromptMarkdownFormatter) SupportedType() string {
	return "PromptPreview"
}
