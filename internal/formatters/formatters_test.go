package formatters

import (
	"encoding/json"
	"testing"

	"jobgen/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleProfile() *types.JobProfile {
	return &types.JobProfile{
		JobTitle:            "Data Analyst",
		EnhancedDescription: "Turns raw data into decisions.",
		SkillCategories: types.SkillCategories{
			JobRelatedSkills: []string{"SQL", "Python"},
			GeneralExpertise: []string{"Statistics"},
		},
		KeyResponsibilities: []string{"Build dashboards", "Run experiments"},
	}
}

func TestFormat_JSON(t *testing.T) {
	out := types.GenerationOutput{Operation: types.OperationDescription, Model: "gpt-4", Content: "Section 1..."}

	formatted, err := GlobalRegistry.Format(out, "json")
	require.NoError(t, err)

	var decoded types.GenerationOutput
	require.NoError(t, json.Unmarshal([]byte(formatted), &decoded))
	assert.Equal(t, out, decoded)
}

func TestFormat_YAML(t *testing.T) {
	out := types.GenerationOutput{Operation: types.OperationStructured, Content: "{}", Profile: sampleProfile()}

	formatted, err := GlobalRegistry.Format(out, "yaml")
	require.NoError(t, err)
	assert.Contains(t, formatted, "operation: structured")
	assert.Contains(t, formatted, "job_related_skills:")

	var decoded types.GenerationOutput
	require.NoError(t, yaml.Unmarshal([]byte(formatted), &decoded))
	assert.Equal(t, "Data Analyst", decoded.Profile.JobTitle)
}

func TestFormat_TextPlainContent(t *testing.T) {
	formatted, err := GlobalRegistry.Format(types.GenerationOutput{Content: "  Section 1...\n"}, "text")
	require.NoError(t, err)
	assert.Equal(t, "=== JOB DESCRIPTION ===\n\nSection 1...\n", formatted)
}

func TestFormat_TextProfile(t *testing.T) {
	formatted, err := GlobalRegistry.Format(&types.GenerationOutput{Profile: sampleProfile()}, "text")
	require.NoError(t, err)

	assert.Contains(t, formatted, "Title: Data Analyst")
	assert.Contains(t, formatted, "  - SQL\n")
	assert.Contains(t, formatted, "Soft skills:\n  (none)")
	assert.Contains(t, formatted, "2. Run experiments")
}

func TestFormat_MarkdownProfile(t *testing.T) {
	formatted, err := GlobalRegistry.Format(types.GenerationOutput{Profile: sampleProfile()}, "markdown")
	require.NoError(t, err)

	assert.Contains(t, formatted, "# Data Analyst\n")
	assert.Contains(t, formatted, "### Job-Related Skills\n\n- SQL\n- Python\n")
	assert.Contains(t, formatted, "### Soft Skills\n\n_None listed_")
	assert.Contains(t, formatted, "## Key Responsibilities\n\n- Build dashboards\n")
}

func TestFormat_MarkdownContent(t *testing.T) {
	formatted, err := GlobalRegistry.Format(types.GenerationOutput{Model: "gpt-4", Content: "Body"}, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Job Description\n\n_Generated by gpt-4_\n\nBody\n", formatted)
}

func TestFormat_PromptPreview(t *testing.T) {
	preview := types.PromptPreview{Operation: types.OperationStructured, SystemPrompt: "sys", UserPrompt: "user"}

	text, err := GlobalRegistry.Format(preview, "text")
	require.NoError(t, err)
	assert.Equal(t, "=== SYSTEM ===\nsys\n\n=== USER ===\nuser\n", text)

	noSystem, err := GlobalRegistry.Format(types.PromptPreview{UserPrompt: "user"}, "text")
	require.NoError(t, err)
	assert.NotContains(t, noSystem, "SYSTEM")

	md, err := GlobalRegistry.Format(preview, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Prompt: structured")
	assert.Contains(t, md, "## User\n\n````text\nuser\n````\n")
}

func TestFormat_Unknown(t *testing.T) {
	_, err := GlobalRegistry.Format(types.GenerationOutput{}, "xml")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(map[string]string{"a": "b"}, "text")
	assert.Error(t, err)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, GlobalRegistry.GetSupportedFormats())
}
