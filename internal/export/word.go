package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/llm"
)

// Externally observable artifact contract: file name, content type, and the
// Word-compatible HTML structure below must stay stable for compatibility
// with the established report format.
const (
	DefaultReportTitle = "风采展示汇总"
	ReportFileName     = "推文稿汇总.doc"
	ReportContentType  = "application/vnd.ms-word"
)

const docHeader = `<html xmlns:o='urn:schemas-microsoft-com:office:office'
      xmlns:w='urn:schemas-microsoft-com:office:word'
      xmlns='http://www.w3.org/TR/REC-html40'>
<head>
<meta charset="utf-8">
<style>
  body { font-family: 'SimSun', 'Songti SC', serif; font-size: 12pt; line-height: 1.5; }
  h1 { text-align: center; font-size: 18pt; font-weight: bold; margin-bottom: 20px; }
  .team-section { margin-bottom: 30px; }
  .team-title {
    background-color: yellow;
    display: inline-block;
    font-weight: bold;
    margin-bottom: 10px;
    padding: 2px 5px;
  }
  .section-title { font-weight: bold; margin-top: 10px; margin-bottom: 5px; }
  p { margin: 5px 0; }
  .info-line { text-indent: 0; }
</style>
</head>
<body>
`

// RenderTeamsDoc renders completed records, in input order, into a single
// Word-compatible HTML document. Rendering the same records twice produces
// byte-identical output. An empty record set is ErrNoCompletedItems, never an
// empty document.
func RenderTeamsDoc(title string, records []llm.TeamFields) ([]byte, error) {
	if len(records) == 0 {
		return nil, common.NewAppError("EXPORT_EMPTY", "no completed records to render", common.ErrNoCompletedItems)
	}
	if title == "" {
		title = DefaultReportTitle
	}

	var b strings.Builder
	b.WriteString(docHeader)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))

	for i, team := range records {
		// positional fallback when the record carries no team label
		label := team.TeamName
		if label == "" {
			label = fmt.Sprintf("队伍 %d", i+1)
		}

		b.WriteString("<div class=\"team-section\">\n")
		fmt.Fprintf(&b, "<div class=\"team-title\">%s</div>\n", html.EscapeString(label))

		b.WriteString("<div class=\"section-title\">1、获奖信息</div>\n")
		writeInfoLine(&b, "竞赛名称", team.CompetitionName)
		writeInfoLine(&b, "获奖级别", team.AwardLevel)
		writeInfoLine(&b, "所属学院", team.College)
		writeInfoLine(&b, "队伍成员", team.Members)
		writeInfoLine(&b, "指导老师", team.Instructors)

		b.WriteString("<div class=\"section-title\">2、作品介绍</div>\n")
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(team.ProjectIntro))

		b.WriteString("<div class=\"section-title\">3、队伍心得</div>\n")
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(team.Reflection))

		b.WriteString("<p style=\"color: red; font-size: 10pt;\">[此处请手动插入相关队伍图片/证书]</p>\n")
		b.WriteString("<br/>\n<hr/>\n</div>\n")
	}

	b.WriteString("</body></html>\n")
	return []byte(b.String()), nil
}

func writeInfoLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<p class=\"info-line\">%s：%s</p>\n", label, html.EscapeString(value))
}
