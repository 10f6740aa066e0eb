package prompt

import (
	"fmt"
	"strings"
	"sync/atomic"

	"jobgen/internal/types"
)

// Templates holds optional overrides for the built-in prompts. Empty fields
// fall back to the defaults. User templates use %[n]s verbs with the same
// argument order as the defaults.
type Templates struct {
	DescriptionUser   string
	DescriptionSystem string
	StructuredUser    string
	StructuredSystem  string
	MaxFieldRunes     int
}

// Builder renders prompts from JobParameters. A Builder is immutable and
// safe for concurrent use.
type Builder struct {
	descriptionUser   string
	descriptionSystem string
	structuredUser    string
	structuredSystem  string
	maxFieldRunes     int
}

// NewBuilder validates the overrides in t and returns a Builder.
func NewBuilder(t Templates) (*Builder, error) {
	b := &Builder{
		descriptionUser:   firstNonEmpty(t.DescriptionUser, DescriptionTemplate),
		descriptionSystem: t.DescriptionSystem,
		structuredUser:    firstNonEmpty(t.StructuredUser, StructuredTemplate),
		structuredSystem:  firstNonEmpty(t.StructuredSystem, StructuredSystemPrompt),
		maxFieldRunes:     t.MaxFieldRunes,
	}
	if b.maxFieldRunes == 0 {
		b.maxFieldRunes = DefaultMaxFieldRunes
	}

	if err := checkTemplate("description", b.descriptionUser, descriptionArgs); err != nil {
		return nil, err
	}
	if err := checkTemplate("structured", b.structuredUser, structuredArgs); err != nil {
		return nil, err
	}
	if !strings.Contains(b.structuredUser, JSONInstruction) {
		return nil, fmt.Errorf("structured template must contain %q", JSONInstruction)
	}
	return b, nil
}

// Default returns a Builder with the built-in templates.
func Default() *Builder {
	return &Builder{
		descriptionUser:  DescriptionTemplate,
		structuredUser:   StructuredTemplate,
		structuredSystem: StructuredSystemPrompt,
		maxFieldRunes:    DefaultMaxFieldRunes,
	}
}

// Description renders the free-form job card prompt.
func (b *Builder) Description(p types.JobParameters) string {
	return fmt.Sprintf(b.descriptionUser,
		b.clean(p.JobTitle),
		b.clean(p.CompanyType),
		b.clean(p.Location),
	)
}

// Structured renders the JSON job profile prompt.
func (b *Builder) Structured(p types.JobParameters) string {
	return fmt.Sprintf(b.structuredUser,
		b.clean(p.JobTitle),
		b.clean(p.CompanyName),
		b.clean(p.Seniority),
		b.clean(p.Department),
		b.clean(p.Location),
		b.clean(p.Domain),
	)
}

// User renders the user prompt for op.
func (b *Builder) User(op types.Operation, p types.JobParameters) string {
	if op == types.OperationStructured {
		return b.Structured(p)
	}
	return b.Description(p)
}

// System returns the system message for op, or "" when none is sent.
func (b *Builder) System(op types.Operation) string {
	if op == types.OperationStructured {
		return b.structuredSystem
	}
	return b.descriptionSystem
}

func (b *Builder) clean(s string) string {
	return Neutralize(s, b.maxFieldRunes)
}

// BuildDescriptionPrompt renders the free-form prompt with the built-in template.
func BuildDescriptionPrompt(p types.JobParameters) string {
	return defaultBuilder.Description(p)
}

// BuildStructuredPrompt renders the JSON prompt with the built-in template.
func BuildStructuredPrompt(p types.JobParameters) string {
	return defaultBuilder.Structured(p)
}

var defaultBuilder = Default()

// Store holds the active Builder. Reloads swap it without blocking readers.
type Store struct {
	current atomic.Pointer[Builder]
}

// NewStore returns a Store holding b, or the default Builder when b is nil.
func NewStore(b *Builder) *Store {
	s := &Store{}
	s.Set(b)
	return s
}

// Get returns the active Builder.
func (s *Store) Get() *Builder {
	return s.current.Load()
}

// Set replaces the active Builder.
func (s *Store) Set(b *Builder) {
	if b == nil {
		b = Default()
	}
	s.current.Store(b)
}

// checkTemplate renders tmpl with placeholder arguments and rejects
// templates that drop the job title or reference missing arguments.
func checkTemplate(name, tmpl string, nargs int) error {
	if !strings.Contains(tmpl, "%[1]s") {
		return fmt.Errorf("%s template must reference the job title as %%[1]s", name)
	}
	args := make([]any, nargs)
	for i := range args {
		args[i] = "x"
	}
	out := fmt.Sprintf(tmpl, args...)
	if i := strings.Index(out, "%!"); i >= 0 {
		return fmt.Errorf("%s template has invalid verbs near %q", name, out[i:min(len(out), i+40)])
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
