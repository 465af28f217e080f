package llm

import "context"

// TeamFields is the normalized record we want from the extraction service.
// Optional fields the model could not locate carry the NotMentioned sentinel;
// required fields (competition_name, award_level, project_intro, reflection)
// must always be present in a successful extraction.
type TeamFields struct {
	TeamName        string `json:"teamName"`
	CompetitionName string `json:"competitionName"`
	AwardLevel      string `json:"awardLevel"`
	College         string `json:"college"`
	Members         string `json:"members"`     // comma-separated names
	Instructors     string `json:"instructors"` // comma-separated names
	ProjectIntro    string `json:"projectIntro"`
	Reflection      string `json:"reflection"`
}

// ExtractRequest carries one document to the extraction service.
type ExtractRequest struct {
	Data         []byte // raw document content (PDF page or image)
	MIMEType     string
	FilenameHint string // team-name fallback when the document names no team
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (TeamFields, []byte /*rawJSON*/, error)
}
