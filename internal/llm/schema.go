package llm

// NotMentioned is the placeholder the extraction schema demands for any
// optional field the model could not locate in the document.
const NotMentioned = "未提及"

// FieldSpec describes one extracted field in a provider-neutral way. The
// gemini client renders the table into its own schema representation and the
// same table drives local response validation.
type FieldSpec struct {
	Required    bool
	Description string
}

// fieldOrder fixes the declaration order of the schema; it also matches the
// listing order in the rendered report.
var fieldOrder = []string{
	"teamName",
	"competitionName",
	"awardLevel",
	"college",
	"members",
	"instructors",
	"projectIntro",
	"reflection",
}

var fieldSpecs = map[string]FieldSpec{
	"teamName":        {Description: "The team identifier, e.g. '队伍一', or inferred from context."},
	"competitionName": {Required: true, Description: "竞赛名称"},
	"awardLevel":      {Required: true, Description: "获奖级别"},
	"college":         {Description: "所属学院"},
	"members":         {Description: "队伍成员, comma-separated"},
	"instructors":     {Description: "指导老师, comma-separated"},
	"projectIntro":    {Required: true, Description: "作品介绍 summary"},
	"reflection":      {Required: true, Description: "队伍心得 summary"},
}

// FieldNames returns the schema fields in declaration order.
func FieldNames() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// Spec returns the declarative description of a schema field.
func Spec(name string) (FieldSpec, bool) {
	s, ok := fieldSpecs[name]
	return s, ok
}

// RequiredFields returns the fields that must be present in every successful
// extraction, in declaration order.
func RequiredFields() []string {
	var out []string
	for _, name := range fieldOrder {
		if fieldSpecs[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// OptionalFields returns the fields the sentinel convention applies to, in
// declaration order.
func OptionalFields() []string {
	var out []string
	for _, name := range fieldOrder {
		if !fieldSpecs[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// BuildTeamJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We use it locally to validate the model response before
// unmarshalling into TeamFields.
func BuildTeamJSONSchema() map[string]any {
	props := make(map[string]any, len(fieldOrder))
	for _, name := range fieldOrder {
		props[name] = map[string]any{
			"type":        "string",
			"description": fieldSpecs[name].Description,
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             RequiredFields(),
	}
}
