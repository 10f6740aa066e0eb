package types

// Operation names a generation variant. Each variant is deployed on its own.
type Operation string

const (
	OperationDescription Operation = "description"
	OperationStructured  Operation = "structured"
)

// ParseOperation accepts an operation name or its short alias.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case "description", "a", "A":
		return OperationDescription, true
	case "structured", "b", "B":
		return OperationStructured, true
	default:
		return "", false
	}
}

// JobParameters is the flat record a prompt is rendered from.
// Fields a variant does not use are ignored; unset fields are "".
type JobParameters struct {
	JobTitle    string `json:"job_title" yaml:"job_title"`
	CompanyType string `json:"company_type,omitempty" yaml:"company_type,omitempty"`
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	Seniority   string `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Department  string `json:"department,omitempty" yaml:"department,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Domain      string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// DescriptionRequest is the body of the free-form description endpoint.
// All fields are required.
type DescriptionRequest struct {
	JobTitle    string `json:"job_title"`
	CompanyType string `json:"company_type"`
	Location    string `json:"location"`
}

// Parameters converts the request into JobParameters.
func (r DescriptionRequest) Parameters() JobParameters {
	return JobParameters{
		JobTitle:    r.JobTitle,
		CompanyType: r.CompanyType,
		Location:    r.Location,
	}
}

// StructuredRequest is the body of the structured endpoint.
// Only JobTitle is required.
type StructuredRequest struct {
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name,omitempty"`
	Seniority   string `json:"seniority,omitempty"`
	Department  string `json:"department,omitempty"`
	Location    string `json:"location,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// Parameters converts the request into JobParameters.
func (r StructuredRequest) Parameters() JobParameters {
	return JobParameters{
		JobTitle:    r.JobTitle,
		CompanyName: r.CompanyName,
		Seniority:   r.Seniority,
		Department:  r.Department,
		Location:    r.Location,
		Domain:      r.Domain,
	}
}

// DescriptionResponse is the success body of the description endpoint.
type DescriptionResponse struct {
	Output string `json:"output"`
}

// DescriptionError is the failure body of the description endpoint.
type DescriptionError struct {
	Detail string `json:"detail"`
}

// StructuredResponse is the success body of the structured endpoint.
type StructuredResponse struct {
	Result string `json:"result"`
}

// StructuredError is the failure body of the structured endpoint.
type StructuredError struct {
	Error string `json:"error"`
}

// SkillCategories groups the skills of a JobProfile.
type SkillCategories struct {
	JobRelatedSkills []string `json:"job_related_skills" yaml:"job_related_skills" jsonschema_description:"Technical or domain skills specific to the role"`
	GeneralExpertise []string `json:"general_expertise" yaml:"general_expertise" jsonschema_description:"Broader expertise expected at this level"`
	SoftSkills       []string `json:"soft_skills" yaml:"soft_skills" jsonschema_description:"Interpersonal and behavioral skills"`
}

// JobProfile is the JSON document the structured prompt asks the model for.
type JobProfile struct {
	JobTitle            string          `json:"job_title" yaml:"job_title" jsonschema_description:"The job title"`
	EnhancedDescription string          `json:"enhanced_description" yaml:"enhanced_description" jsonschema_description:"A polished description of the role"`
	SkillCategories     SkillCategories `json:"skill_categories" yaml:"skill_categories"`
	KeyResponsibilities []string        `json:"key_responsibilities" yaml:"key_responsibilities" jsonschema_description:"Main duties of the role"`
}

// GenerationOutput is what the CLI renders after a generation.
type GenerationOutput struct {
	Operation Operation   `json:"operation" yaml:"operation"`
	Model     string      `json:"model,omitempty" yaml:"model,omitempty"`
	Content   string      `json:"content" yaml:"content"`
	Profile   *JobProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// PromptPreview is a rendered prompt pair, shown without calling a model.
type PromptPreview struct {
	Operation    Operation `json:"operation" yaml:"operation"`
	SystemPrompt string    `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	UserPrompt   string    `json:"user_prompt" yaml:"user_prompt"`
}
