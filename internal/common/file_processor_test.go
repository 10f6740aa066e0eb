package common

import (
	"os"
	"path/filepath"
	"testing"

	"jobgen/internal/errors"
	"jobgen/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadParamsFile(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(nil, 0)

	tests := []struct {
		name     string
		file     string
		content  string
		expected types.JobParameters
	}{
		{
			name:     "yaml",
			file:     "params.yaml",
			content:  "job_title: Data Analyst\ncompany_type: Startup\nlocation: Remote\n",
			expected: types.JobParameters{JobTitle: "Data Analyst", CompanyType: "Startup", Location: "Remote"},
		},
		{
			name:     "json",
			file:     "params.json",
			content:  `{"job_title": "SRE", "seniority": "Senior", "domain": "Payments"}`,
			expected: types.JobParameters{JobTitle: "SRE", Seniority: "Senior", Domain: "Payments"},
		},
		{
			name:    "empty",
			file:    "empty.yaml",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			params, err := fp.ReadParamsFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestReadParamsFile_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.yaml", "job_title: SRE\njobtitle: typo\n")

	_, err := NewFileProcessor(nil, 0).ReadParamsFile(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidFormat, errors.CodeOf(err))
}

func TestReadFile_Validation(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(nil, 8)

	_, err := fp.ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = fp.ReadFile(dir)
	assert.Error(t, err)

	big := writeFile(t, dir, "big.yaml", "job_title: far too long for the limit")
	_, err = fp.ReadFile(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid file")

	small := writeFile(t, dir, "small.txt", "ok")
	content, err := fp.ReadFile(small)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "result.json")

	require.NoError(t, NewFileProcessor(nil, 0).WriteFile(path, "{}"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.0 KB", formatFileSize(1024))
	assert.Equal(t, "1.5 MB", formatFileSize(1536*1024))
}
