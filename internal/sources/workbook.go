package sources

import (
	"fmt"
	"io"

	"github.com/RecoveryAshes/linkgrab/internal/crawlers"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// 每行只检查前两列
const linkColumns = 2

// ReadWorkbook 读取xlsx工作簿中的链接
// 每个工作表为一个来源, 工作表顺序即来源顺序
func ReadWorkbook(path string, logger zerolog.Logger) (*models.SourceLinkMap, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败 [%s]: %w", path, err)
	}
	defer f.Close()

	logger.Info().Str("file", path).Msg("从工作簿中查找链接")
	return collectLinks(f, logger)
}

// ParseWorkbook 从io.Reader读取工作簿
func ParseWorkbook(r io.Reader, logger zerolog.Logger) (*models.SourceLinkMap, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析工作簿失败: %w", err)
	}
	defer f.Close()

	return collectLinks(f, logger)
}

func collectLinks(f *excelize.File, logger zerolog.Logger) (*models.SourceLinkMap, error) {
	links := models.NewSourceLinkMap()
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 [%s] 失败: %w", sheet, err)
		}

		before := links.Occurrences()
		for _, row := range rows {
			for _, cell := range rowCells(row) {
				if url, ok := crawlers.FirstURL(cell); ok {
					links.Add(sheet, url)
				}
			}
		}
		logger.Debug().
			Str("sheet", sheet).
			Int("rows", len(rows)).
			Int("links", links.Occurrences()-before).
			Msg("工作表读取完成")
	}
	return links, nil
}

// rowCells 返回行的前两列, 两列都为空时返回nil
// GetRows会去掉行尾的空单元格, 所以行可能短于两列
func rowCells(row []string) []string {
	n := len(row)
	if n > linkColumns {
		n = linkColumns
	}
	cells := row[:n]
	for _, cell := range cells {
		if cell != "" {
			return cells
		}
	}
	return nil
}
