package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// 输出格式
const (
	FormatTSV   = "tsv"
	FormatTable = "table"
)

// 字段内的分隔符替换为空格, 保证每行列数固定
var fieldSanitizer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// Reporter 报告输出
// 标准输出按format输出(TSV或表格), 指定输出文件时文件始终为TSV
type Reporter struct {
	stdout     io.Writer
	format     string
	outputPath string
	logger     zerolog.Logger
}

// NewReporter 创建报告生成器
func NewReporter(stdout io.Writer, outputPath, format string, logger zerolog.Logger) *Reporter {
	if format == "" {
		format = FormatTSV
	}
	return &Reporter{
		stdout:     stdout,
		format:     format,
		outputPath: outputPath,
		logger:     logger,
	}
}

// WriteVerification 输出验证报告
func (r *Reporter) WriteVerification(rows []models.VerificationRow) error {
	fields := make([][]string, len(rows))
	for i, row := range rows {
		fields[i] = row.Fields()
	}
	return r.Write(models.VerificationHeader, fields)
}

// WriteCrawl 输出爬取报告
func (r *Reporter) WriteCrawl(records []models.ChannelLinkRecord) error {
	fields := make([][]string, len(records))
	for i, record := range records {
		fields[i] = record.Fields()
	}
	return r.Write(models.CrawlHeader, fields)
}

// Write 输出表头和数据行
func (r *Reporter) Write(header []string, rows [][]string) error {
	if r.outputPath != "" {
		if err := r.writeFile(header, rows); err != nil {
			return err
		}
	}

	if r.stdout == nil {
		return nil
	}
	if r.format == FormatTable {
		renderTable(r.stdout, header, rows)
		return nil
	}
	return writeTSV(r.stdout, header, rows)
}

func (r *Reporter) writeFile(header []string, rows [][]string) error {
	if dir := filepath.Dir(r.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	file, err := os.Create(r.outputPath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if err := writeTSV(file, header, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}

	r.logger.Info().Str("path", r.outputPath).Int("rows", len(rows)).Msg("报告已写入")
	return nil
}

// SaveSummary 保存运行摘要, path为空时跳过
func (r *Reporter) SaveSummary(path string, summary *models.RunSummary) error {
	if path == "" {
		return nil
	}
	if err := summary.SaveToFile(path); err != nil {
		return fmt.Errorf("保存运行摘要失败: %w", err)
	}
	r.logger.Info().Str("path", path).Msg("运行摘要已保存")
	return nil
}

// writeTSV 写入TSV, 每行以换行结尾
func writeTSV(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) {
		for i, field := range fields {
			if i > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(SanitizeField(field))
		}
		bw.WriteByte('\n')
	}

	writeLine(header)
	for _, row := range rows {
		writeLine(row)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("写入TSV失败: %w", err)
	}
	return nil
}

// renderTable 以表格形式输出到终端
func renderTable(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(toTableRow(header))
	for _, row := range rows {
		t.AppendRow(toTableRow(row))
	}
	t.AppendFooter(table.Row{"Total", len(rows)})
	t.Render()
}

func toTableRow(fields []string) table.Row {
	row := make(table.Row, len(fields))
	for i, field := range fields {
		row[i] = SanitizeField(field)
	}
	return row
}

// SanitizeField 替换字段中的制表符和换行符
func SanitizeField(field string) string {
	return fieldSanitizer.Replace(field)
}

// NewProgressBar 创建进度条, 输出到stderr以免混入报告行
func NewProgressBar(max int, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		out = os.Stderr
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
