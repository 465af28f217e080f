package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/llm"
)

// SummaryFileName is the artifact name for the tabular companion export.
const SummaryFileName = "推文稿汇总.xlsx"

// RenderTeamsXLSX returns an XLSX workbook (as bytes) with one row per
// extracted record, in input order. Companion to the Word report for anyone
// who wants the data in tabular form.
func RenderTeamsXLSX(records []llm.TeamFields) ([]byte, error) {
	if len(records) == 0 {
		return nil, common.NewAppError("EXPORT_EMPTY", "no completed records to render", common.ErrNoCompletedItems)
	}

	f := excelize.NewFile()
	const sheet = "Teams"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// drop the default sheet so the workbook only carries ours
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"队伍",
		"竞赛名称",
		"获奖级别",
		"所属学院",
		"队伍成员",
		"指导老师",
		"作品介绍",
		"队伍心得",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for i, team := range records {
		label := team.TeamName
		if label == "" {
			label = fmt.Sprintf("队伍 %d", i+1)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, label)
		write(2, team.CompetitionName)
		write(3, team.AwardLevel)
		write(4, team.College)
		write(5, team.Members)
		write(6, team.Instructors)
		write(7, team.ProjectIntro)
		write(8, team.Reflection)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "C", 24)
	_ = f.SetColWidth(sheet, "D", "F", 22)
	_ = f.SetColWidth(sheet, "G", "H", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
