package ai

import (
	"strings"
	"sync"

	"jobgen/internal/errors"
	"jobgen/internal/types"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var profileSchema = sync.OnceValues(func() (*jsonschema.Definition, error) {
	return jsonschema.GenerateSchemaForType(types.JobProfile{})
})

// ProfileSchema returns the JSON schema a structured answer must satisfy.
func ProfileSchema() (*jsonschema.Definition, error) {
	return profileSchema()
}

// ParseProfile checks that text is a JSON job profile and decodes it.
// A surrounding markdown code fence is tolerated. Failures carry
// errors.KindMalformed.
func ParseProfile(text string) (*types.JobProfile, error) {
	schema, err := profileSchema()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeGenerationFailed, "failed to build job profile schema", err)
	}

	body := StripCodeFence(text)
	if body == "" {
		return nil, errors.NewModelError(errors.KindMalformed, "model output is empty", errEmptyContent)
	}

	var profile types.JobProfile
	if err := jsonschema.VerifySchemaAndUnmarshal(*schema, []byte(body), &profile); err != nil {
		return nil, errors.NewModelError(errors.KindMalformed, "model output is not a valid job profile", err)
	}
	return &profile, nil
}

// StripCodeFence removes a leading ``` or ```json line and the closing
// fence, if both are present.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return trimmed
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
		lang := strings.TrimSpace(inner[:newline])
		if lang == "" || !strings.ContainsAny(lang, "{[\"") {
			inner = inner[newline+1:]
		}
	}
	return strings.TrimSpace(inner)
}
