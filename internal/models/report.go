package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunSummary 单次运行摘要(写入 output.summary_file)
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Command   string    `json:"command"` // verify | crawl
	Input     string    `json:"input"`   // 工作簿路径或频道登记文件
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒
	Rows      int       `json:"rows"`     // 输出行数
	Partial   bool      `json:"partial"`  // 是否被中断

	Verify *VerifyStats `json:"verify,omitempty"`
	Crawl  *CrawlStats  `json:"crawl,omitempty"`
}

// ToJSON 序列化为JSON
func (s *RunSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON 从JSON反序列化
func (s *RunSummary) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}

// SaveToFile 保存到文件,必要时创建目录
func (s *RunSummary) SaveToFile(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
