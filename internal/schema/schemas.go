package schema

// Field names shared by the profile schemas.
const (
	FieldName              = "name"
	FieldEducation         = "education"
	FieldExperienceSummary = "experience_summary"
	FieldExperiences       = "experiences"
	FieldHardSkills        = "hard_skills"
	FieldLanguageLevel     = "language_level"
	FieldDesiredTitle      = "desired_title"
	FieldConfidence        = "confidence"
	FieldRationale         = "rationale"
)

// RequiredProfileFields must all be populated before a profile counts as complete.
var RequiredProfileFields = []string{
	FieldEducation,
	FieldExperienceSummary,
	FieldHardSkills,
	FieldLanguageLevel,
}

var experienceFields = []Field{
	{Name: "company", Kind: KindString, Nullable: true, MaxLength: 200},
	{Name: "role", Kind: KindString, Nullable: true, MaxLength: 200},
	{Name: "years", Kind: KindNumber, Nullable: true, Range: &Range{Min: 0, Max: 60}},
	{Name: "description", Kind: KindString, Nullable: true, MaxLength: 1000},
}

func profileFields(withName bool) []Field {
	fields := make([]Field, 0, 9)
	if withName {
		fields = append(fields, Field{
			Name: FieldName, Kind: KindString, Nullable: true, MaxLength: 200,
			Description: "Candidate's name as they wrote it.",
		})
	}
	return append(fields,
		Field{
			Name: FieldEducation, Kind: KindString, Nullable: true, MaxLength: 500,
			Description: "Highest education reached, e.g. 'Technical High School'.",
		},
		Field{
			Name: FieldExperienceSummary, Kind: KindString, Nullable: true, MaxLength: 1500,
			Description: "One or two sentences summarising work experience, including total years.",
		},
		Field{
			Name: FieldExperiences, Kind: KindObjectList, Nullable: true, MaxItems: 20,
			Description: "Individual positions held.",
			Fields:      experienceFields,
		},
		Field{
			Name: FieldHardSkills, Kind: KindStringList, Nullable: true, MaxItems: 40,
			Description: "Technical skills, tools and certifications.",
		},
		Field{
			Name: FieldLanguageLevel, Kind: KindEnum, Nullable: true,
			Enum: Levels, Normalize: NormalizeProficiency,
			Description: "Language proficiency on the A1..C2 scale; null when unclear.",
		},
		Field{
			Name: FieldDesiredTitle, Kind: KindString, Nullable: true, Optional: true, MaxLength: 200,
			Description: "Job title the candidate is looking for.",
		},
		Field{
			Name: FieldConfidence, Kind: KindNumber, Nullable: true, Optional: true,
			Range:       &Range{Min: 0, Max: 100},
			Description: "Confidence in the extraction from 0 to 100.",
		},
		Field{
			Name: FieldRationale, Kind: KindString, Nullable: true, Optional: true, MaxLength: 1000,
			Description: "Short explanation of what was extracted and why.",
		},
	)
}

// ProfileExtraction is the shape of a profile extracted from chat text.
var ProfileExtraction = &Schema{
	Name:        "profile_extraction",
	Description: "Partial candidate profile extracted from a chat message.",
	Fields:      profileFields(true),
}

// DocumentExtraction is the shape of a profile extracted from an uploaded
// document. It has no name field since identifiers are redacted.
var DocumentExtraction = &Schema{
	Name:        "document_extraction",
	Description: "Partial candidate profile extracted from a CV or certificate.",
	Fields:      profileFields(false),
}

// SessionProfile re-validates a merged profile. It is strict: a value that
// needs coercion here means the merge produced something invalid.
var SessionProfile = &Schema{
	Name:   "session_profile",
	Strict: true,
	Fields: []Field{
		{Name: FieldName, Kind: KindString, Nullable: true, Optional: true, MaxLength: 200},
		{Name: FieldEducation, Kind: KindString, Nullable: true, Optional: true, MaxLength: 500},
		{Name: FieldExperienceSummary, Kind: KindString, Nullable: true, Optional: true, MaxLength: 1500},
		{Name: FieldExperiences, Kind: KindObjectList, Nullable: true, Optional: true, MaxItems: 20, Fields: experienceFields},
		{Name: FieldHardSkills, Kind: KindStringList, Nullable: true, Optional: true, MaxItems: 40},
		{Name: FieldLanguageLevel, Kind: KindEnum, Nullable: true, Optional: true, Enum: Levels},
		{Name: FieldDesiredTitle, Kind: KindString, Nullable: true, Optional: true, MaxLength: 200},
	},
}

// Sentiment labels for the qualification stage.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Qualification is extracted from the answer to the availability question.
var Qualification = &Schema{
	Name:        "qualification",
	Description: "Availability and accommodation needs stated by the candidate.",
	Fields: []Field{
		{Name: "availability", Kind: KindString, Nullable: true, MaxLength: 300,
			Description: "When and how much the candidate can work."},
		{Name: "accommodation_needed", Kind: KindBool, Nullable: true,
			Description: "Whether the candidate asked for any workplace accommodation."},
		{Name: "accommodation_details", Kind: KindString, Nullable: true, Optional: true, MaxLength: 300,
			Description: "What accommodation was requested, without medical detail."},
		{Name: "sentiment", Kind: KindEnum, Nullable: true,
			Enum:        []string{SentimentPositive, SentimentNeutral, SentimentNegative},
			Description: "Overall tone of the message."},
	},
}

// Intent labels.
const (
	IntentAffirm  = "affirm"
	IntentRefuse  = "refuse"
	IntentUnclear = "unclear"
)

// Intent classifies a reply to a yes/no question.
var Intent = &Schema{
	Name:        "intent",
	Description: "Whether the message agrees to, refuses, or does not answer the question asked.",
	Fields: []Field{
		{Name: "intent", Kind: KindEnum, Enum: []string{IntentAffirm, IntentRefuse, IntentUnclear}},
	},
}

// MatchVerdict is the per-job assessment produced by the inference service.
var MatchVerdict = &Schema{
	Name:        "match_verdict",
	Description: "Sub-scores of a candidate against one job, with reasoning.",
	Fields: []Field{
		{Name: "skills_score", Kind: KindNumber, Range: &Range{Min: 0, Max: 100},
			Description: "0-100. Missing required skills weigh more than missing nice-to-have skills."},
		{Name: "experience_score", Kind: KindNumber, Range: &Range{Min: 0, Max: 100},
			Description: "0-100. Compare required years to the candidate's experience."},
		{Name: "language_score", Kind: KindNumber, Range: &Range{Min: 0, Max: 100},
			Description: "0-100. Compare the candidate's level to the required level."},
		{Name: "reasoning", Kind: KindString, MaxLength: 1000,
			Description: "Two sentences justifying the scores using job-relevant facts only."},
	},
}
