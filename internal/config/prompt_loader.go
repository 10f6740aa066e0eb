package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"jobgen/internal/prompt"
	"jobgen/internal/types"
)

// PromptSource represents where a prompt was loaded from
type PromptSource struct {
	Source    string // "file", "config" or "default"
	FilePath  string // Set if Source is "file"
	Operation types.Operation
	Type      string // "system" or "user"
}

// promptSlot is one overridable prompt of one operation.
type promptSlot struct {
	op     types.Operation
	kind   string
	inline string
	file   string
	target *string
}

// LoadPrompts resolves the prompt overrides of every operation. A file
// takes precedence over inline config; both empty keep the built-in
// default. Files are read on every call so the result reflects edits made
// since startup.
func (c *Config) LoadPrompts() (prompt.Templates, []PromptSource, error) {
	templates := prompt.Templates{MaxFieldRunes: c.AI.MaxFieldLength}
	if templates.MaxFieldRunes == 0 {
		templates.MaxFieldRunes = -1
	}

	slots := []promptSlot{
		{types.OperationDescription, "user", c.AI.Description.UserPrompt, c.AI.Description.UserPromptFile, &templates.DescriptionUser},
		{types.OperationDescription, "system", c.AI.Description.SystemPrompt, c.AI.Description.SystemPromptFile, &templates.DescriptionSystem},
		{types.OperationStructured, "user", c.AI.Structured.UserPrompt, c.AI.Structured.UserPromptFile, &templates.StructuredUser},
		{types.OperationStructured, "system", c.AI.Structured.SystemPrompt, c.AI.Structured.SystemPromptFile, &templates.StructuredSystem},
	}

	sources := make([]PromptSource, 0, len(slots))
	for _, slot := range slots {
		source := PromptSource{Source: "default", Operation: slot.op, Type: slot.kind}
		switch {
		case slot.file != "":
			content, err := loadPromptFromFile(slot.file, slot.kind, string(slot.op))
			if err != nil {
				return prompt.Templates{}, nil, err
			}
			*slot.target = content
			source.Source = "file"
			source.FilePath = slot.file
		case strings.TrimSpace(slot.inline) != "":
			*slot.target = slot.inline
			source.Source = "config"
		}
		sources = append(sources, source)
	}

	logPromptLoadingSummary(sources)
	return templates, sources, nil
}

// PromptFiles returns the prompt files named in the configuration.
func (c *Config) PromptFiles() []string {
	var files []string
	for _, f := range []string{
		c.AI.Description.UserPromptFile,
		c.AI.Description.SystemPromptFile,
		c.AI.Structured.UserPromptFile,
		c.AI.Structured.SystemPromptFile,
	} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles checks that configured prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, filePath := range c.PromptFiles() {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid prompt path: %s", filePath))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("prompt file not found: %s", absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

// logPromptLoadingSummary logs where each prompt came from
func logPromptLoadingSummary(sources []PromptSource) {
	custom := 0
	for _, s := range sources {
		if s.Source == "default" {
			continue
		}
		custom++
		if s.FilePath != "" {
			log.Printf("[CONFIG] %s %s prompt: %s (%s)", s.Operation, s.Type, s.Source, s.FilePath)
		} else {
			log.Printf("[CONFIG] %s %s prompt: %s", s.Operation, s.Type, s.Source)
		}
	}
	if custom == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	}
}
