package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/crawlers"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
)

const sampleExport = `{
  "name": "Sample",
  "type": "public_channel",
  "id": 1001,
  "messages": [
    {"id": 1, "type": "service", "date": "2024-03-01T00:00:00", "action": "create_channel", "text": ""},
    {"id": 2, "type": "message", "date": "2024-03-01T01:00:00", "date_unixtime": "1709254800", "text": "first http://one.example"},
    {"id": 4, "type": "message", "date": "2024-03-01T03:00:00", "text": [
      "see ",
      {"type": "link", "text": "https://two.example/a"},
      " and ",
      {"type": "bold", "text": "bold"},
      " https://three.example"
    ]},
    {"id": 3, "type": "message", "date": "2024-03-01T02:00:00", "text": "no links"},
    {"id": 5, "type": "message", "date": "bad-date", "text": "skipped"}
  ]
}`

func newTestExport(t *testing.T) (*TelegramExport, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sample.json"), []byte(sampleExport), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "result.json"), []byte(sampleExport), 0644); err != nil {
		t.Fatal(err)
	}

	export, err := NewTelegramExport(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTelegramExport() error = %v", err)
	}
	return export, dir
}

func messageIDs(messages []models.Message) []int64 {
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}

func TestTelegramExport_Messages(t *testing.T) {
	export, _ := newTestExport(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		maxID int64
		limit int
		want  []int64
	}{
		{"最新一批", 0, 2, []int64{4, 3}},
		{"按maxID翻页", 3, 2, []int64{2}},
		{"不限数量", 0, 0, []int64{4, 3, 2}},
		{"maxID不在历史中", 100, 1, []int64{4}},
		{"历史耗尽", 2, 10, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, err := export.Messages(ctx, "@sample", tt.maxID, tt.limit)
			if err != nil {
				t.Fatalf("Messages() error = %v", err)
			}
			got := messageIDs(messages)
			if len(got) != len(tt.want) {
				t.Fatalf("IDs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("IDs = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTelegramExport_Parse(t *testing.T) {
	export, _ := newTestExport(t)

	messages, err := export.Messages(context.Background(), "sample", 0, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("服务消息和时间无效的消息应被跳过, 得到 %d 条", len(messages))
	}

	// 实体数组拼接为纯文本
	if want := "see https://two.example/a and bold https://three.example"; messages[0].Text != want {
		t.Errorf("Text = %q, want %q", messages[0].Text, want)
	}
	// date无时区, 按UTC解释
	if want := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC); !messages[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", messages[0].Timestamp, want)
	}
	// date_unixtime优先
	if want := time.Unix(1709254800, 0); !messages[2].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", messages[2].Timestamp, want)
	}

	// 修改返回值不影响缓存
	messages[0].Text = "changed"
	again, _ := export.Messages(context.Background(), "sample", 0, 1)
	if again[0].Text == "changed" {
		t.Error("返回的批次应为副本")
	}
}

func TestTelegramExport_Lookup(t *testing.T) {
	export, _ := newTestExport(t)
	ctx := context.Background()

	if messages, err := export.Messages(ctx, "nested", 0, 0); err != nil || len(messages) != 3 {
		t.Errorf("<id>/result.json 布局应可读取: (%d, %v)", len(messages), err)
	}

	for _, id := range []string{"missing", "../sample", "@", ""} {
		_, err := export.Messages(ctx, id, 0, 10)
		if !errors.Is(err, models.ErrChannelNotFound) {
			t.Errorf("Messages(%q) error = %v, 期望 ErrChannelNotFound", id, err)
		}
	}
}

func TestTelegramExport_Cancelled(t *testing.T) {
	export, _ := newTestExport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := export.Messages(ctx, "sample", 0, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, 期望 context.Canceled", err)
	}
}

func TestNewTelegramExport_Errors(t *testing.T) {
	if _, err := NewTelegramExport("", zerolog.Nop()); err == nil {
		t.Error("空目录应返回错误")
	}
	if _, err := NewTelegramExport(filepath.Join(t.TempDir(), "missing"), zerolog.Nop()); err == nil {
		t.Error("目录不存在应返回错误")
	}
	file := writeFile(t, "file.json", "{}")
	if _, err := NewTelegramExport(file, zerolog.Nop()); err == nil {
		t.Error("文件路径应返回错误")
	}

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644)
	export, _ := NewTelegramExport(dir, zerolog.Nop())
	if _, err := export.Messages(context.Background(), "broken", 0, 1); err == nil || errors.Is(err, models.ErrChannelNotFound) {
		t.Errorf("格式错误的导出应返回解析错误, 得到 %v", err)
	}
}

func TestTelegramExport_WithCrawler(t *testing.T) {
	export, _ := newTestExport(t)
	crawler := crawlers.NewChannelCrawler(export, crawlers.CrawlerOptions{
		WindowHours: 24,
		BatchSize:   1,
		Now:         func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) },
	}, zerolog.Nop())

	registry := models.ChannelRegistry{
		{Name: "Sample", ID: "@sample"},
		{Name: "Gone", ID: "@gone"},
	}
	result, err := crawler.Crawl(context.Background(), registry)
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	// 窗口起点为 03-01 00:00, 三条消息都在窗口内, 逐条翻页直到历史耗尽
	if len(result) != 1 || result[0].Channel != "Sample" {
		t.Fatalf("result = %+v", result)
	}
	want := []string{"https://two.example/a", "https://three.example", "http://one.example"}
	if len(result[0].Links) != len(want) {
		t.Fatalf("Links = %+v", result[0].Links)
	}
	for i, link := range result[0].Links {
		if link.URL != want[i] {
			t.Errorf("Links[%d] = %s, want %s", i, link.URL, want[i])
		}
	}

	stats := crawler.Stats()
	if stats.Succeeded != 1 || stats.Failed != 1 || stats.FailedChannels[0] != "Gone" {
		t.Errorf("stats = %+v", stats)
	}
}
