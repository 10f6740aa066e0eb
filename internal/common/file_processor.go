package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"jobgen/internal/errors"
	"jobgen/internal/types"

	"gopkg.in/yaml.v3"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a new file processor instance. maxSize limits
// the size of files read; zero disables the limit.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if err := validateInputFile(filename, fp.maxSize); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// ReadParamsFile reads job parameters from a YAML or JSON file. Unknown
// keys are rejected so typos do not silently render as blank fields.
func (fp *FileProcessor) ReadParamsFile(filename string) (types.JobParameters, error) {
	if !isParamsFile(filename) {
		fp.logger.Warn("Params file has an unexpected extension", "filename", filename)
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return types.JobParameters{}, err
	}

	var params types.JobParameters
	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil && err != io.EOF {
		return types.JobParameters{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse params file: %s", filename), err)
	}
	return params, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename),
			fmt.Errorf("path is a directory, not a file: %s", filename))
	}

	return nil
}

// validateInputFile checks if a file exists, is a regular file and fits
// within maxSize
func validateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("file %s is %s, larger than the %s limit",
			filename, formatFileSize(info.Size()), formatFileSize(maxSize))
	}

	return nil
}

func isParamsFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains([]string{".yaml", ".yml", ".json"}, ext)
}

// formatFileSize returns a human-readable file size
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
