package llm

import "strings"

// BuildExtractionPrompt returns the fixed instruction text paired with each
// document. fallbackName (usually the original file name) becomes the team
// identifier when the document itself names no team; that fallback is part of
// the contract with the model, not post-processing.
func BuildExtractionPrompt(fallbackName string) string {
	parts := []string{
		"Analyze the attached document (which may be a PDF page or image).",
		"Extract the following information regarding the student competition team.",
		"Fields to extract:",
		"1. Competition Name (竞赛名称)",
		"2. Award Level (获奖级别)",
		"3. College/Department (所属学院)",
		"4. Team Members (队伍成员) - list them as a comma-separated string.",
		"5. Instructors (指导老师) - list them as a comma-separated string.",
		"6. Project Introduction (作品介绍) - summarize the text found under \"作品介绍\" or similar sections. Keep it detailed but clean.",
		"7. Team Reflection (队伍心得) - summarize the text found under \"队伍心得\" or similar sections.",
		"If a specific field is not found, return \"" + NotMentioned + "\".",
		"The 'teamName' should be based on the file content (e.g., \"队伍一\") or, if not found, use the provided filename \"" + fallbackName + "\".",
	}
	return strings.Join(parts, "\n")
}
