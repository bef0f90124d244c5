package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
)

// 导出文件中date字段的格式(无时区)
const exportDateFormat = "2006-01-02T15:04:05"

// TelegramExport 基于Telegram Desktop JSON导出的消息源
// 频道 <id> 的导出文件查找顺序: <dir>/<id>.json, <dir>/<id>/result.json
// 标识前的@会被去掉
type TelegramExport struct {
	dir    string
	logger zerolog.Logger

	mu       sync.Mutex
	channels map[string][]models.Message // 按ID降序
}

// NewTelegramExport 创建消息源, 导出目录不存在时返回错误
func NewTelegramExport(dir string, logger zerolog.Logger) (*TelegramExport, error) {
	if dir == "" {
		return nil, errors.New("未配置导出目录 (crawl.export_dir 或 --export-dir)")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("导出目录不可用: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("导出路径不是目录: %s", dir)
	}

	return &TelegramExport{
		dir:      dir,
		logger:   logger,
		channels: make(map[string][]models.Message),
	}, nil
}

// Messages 实现 MessageSource 接口
// 返回ID严格小于maxID(0表示不限)的最新limit条消息, 按ID降序
func (e *TelegramExport) Messages(ctx context.Context, channelID string, maxID int64, limit int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	history, err := e.history(channelID)
	if err != nil {
		return nil, err
	}

	start := 0
	if maxID > 0 {
		// history按ID降序, 找到第一条ID < maxID的位置
		start = sort.Search(len(history), func(i int) bool {
			return history[i].ID < maxID
		})
	}
	end := len(history)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	batch := make([]models.Message, end-start)
	copy(batch, history[start:end])
	return batch, nil
}

// history 加载并缓存频道的全部消息
func (e *TelegramExport) history(channelID string) ([]models.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if messages, ok := e.channels[channelID]; ok {
		return messages, nil
	}

	path, err := e.locate(channelID)
	if err != nil {
		return nil, err
	}
	messages, err := e.load(path)
	if err != nil {
		return nil, err
	}

	e.channels[channelID] = messages
	e.logger.Debug().
		Str("channel", channelID).
		Str("file", path).
		Int("messages", len(messages)).
		Msg("加载频道导出")
	return messages, nil
}

func (e *TelegramExport) locate(channelID string) (string, error) {
	name := strings.TrimPrefix(channelID, "@")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: 无效的频道标识 %q", models.ErrChannelNotFound, channelID)
	}

	candidates := []string{
		filepath.Join(e.dir, name+".json"),
		filepath.Join(e.dir, name, "result.json"),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", models.ErrChannelNotFound, channelID)
}

func (e *TelegramExport) load(path string) ([]models.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取导出文件失败: %w", err)
	}

	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("解析导出文件失败 [%s]: %w", path, err)
	}

	messages := make([]models.Message, 0, len(export.Messages))
	for _, m := range export.Messages {
		// 跳过服务消息(入群、置顶等)
		if m.Type != "" && m.Type != "message" {
			continue
		}
		ts, err := m.timestamp()
		if err != nil {
			e.logger.Warn().Err(err).Int64("id", m.ID).Str("file", path).Msg("跳过时间无效的消息")
			continue
		}
		messages = append(messages, models.Message{
			ID:        m.ID,
			Timestamp: ts,
			Text:      string(m.Text),
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	return messages, nil
}

// exportFile Telegram Desktop 单个聊天的导出格式
type exportFile struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Messages []exportMessage `json:"messages"`
}

type exportMessage struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Date         string     `json:"date"`
	DateUnixtime string     `json:"date_unixtime"`
	Text         exportText `json:"text"`
}

// timestamp 优先使用date_unixtime, 旧版导出只有date(按UTC解释)
func (m exportMessage) timestamp() (time.Time, error) {
	if m.DateUnixtime != "" {
		sec, err := strconv.ParseInt(m.DateUnixtime, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("date_unixtime无效: %w", err)
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.ParseInLocation(exportDateFormat, m.Date, time.UTC)
}

// exportText 消息文本, 导出中为字符串或由字符串和实体对象组成的数组
type exportText string

// UnmarshalJSON 拼接两种形式为纯文本
func (t *exportText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = exportText(s)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	var sb strings.Builder
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil {
			sb.WriteString(s)
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &entity); err != nil {
			return err
		}
		sb.WriteString(entity.Text)
	}
	*t = exportText(sb.String())
	return nil
}
