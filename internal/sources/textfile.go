package sources

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/linkgrab/internal/crawlers"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
)

// ReadURLFile 从文本文件读取URL列表, 每行一个
// 空行和以#开头的注释行被跳过; 来源名为文件名
func ReadURLFile(path string, logger zerolog.Logger) (*models.SourceLinkMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}
	defer file.Close()

	source := filepath.Base(path)
	links := models.NewSourceLinkMap()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		url, ok := crawlers.FirstURL(line)
		if !ok {
			logger.Warn().Int("line", lineNum).Str("content", line).Msg("跳过无效URL")
			continue
		}
		links.Add(source, url)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取URL文件失败: %w", err)
	}

	if links.Occurrences() == 0 {
		return nil, fmt.Errorf("URL文件中没有有效的URL")
	}

	logger.Info().Int("count", links.Occurrences()).Msg("从文件加载URL")
	return links, nil
}

// LoadLinks 按扩展名选择读取方式: .xlsx/.xlsm 为工作簿, 其他按文本文件处理
func LoadLinks(path string, logger zerolog.Logger) (*models.SourceLinkMap, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path, logger)
	default:
		return ReadURLFile(path, logger)
	}
}
