package prompt

// DescriptionTemplate renders the free-form job card.
// Arguments: 1 job title, 2 company type, 3 location.
const DescriptionTemplate = `You are an expert HR job card generator that creates high-precision job listings for hiring managers.

Your task is to break down the following job title into a comprehensive, execution-focused AI profile card.

Structure:
1. **Enhanced Job Description**
2. **Job-Related (Technical/Domain) Skills**
3. **General Role Skills**
4. **Soft Skills**
5. **Key Responsibilities**
6. **Rating Breakdown** (5 key metrics + definitions for evaluation)

Job Title: %[1]s
Company Type: %[2]s
Location: %[3]s`

// StructuredTemplate renders the JSON job profile request.
// Arguments: 1 job title, 2 company name, 3 seniority, 4 department,
// 5 location, 6 domain.
const StructuredTemplate = `Create a detailed job profile for the role described below.

Job Title: %[1]s
Company Name: %[2]s
Seniority: %[3]s
Department: %[4]s
Location: %[5]s
Domain: %[6]s

Write an enhanced job description, group the required skills into job-related skills, general expertise and soft skills, and list the key responsibilities of the role.

Respond ONLY in valid JSON format. Do not add any explanation, markdown or text before or after the JSON object.
Use exactly this structure:
{
  "job_title": "",
  "enhanced_description": "",
  "skill_categories": {
    "job_related_skills": [],
    "general_expertise": [],
    "soft_skills": []
  },
  "key_responsibilities": []
}`

// StructuredSystemPrompt is the system message sent with structured requests.
const StructuredSystemPrompt = "You are an expert hiring assistant."

// JSONInstruction must be present in every structured prompt.
const JSONInstruction = "Respond ONLY in valid JSON format."

const (
	descriptionArgs = 3
	structuredArgs  = 6
)
