package models

import (
	"strings"
	"time"
)

// TimestampFormat 爬取报告中的时间格式(UTC)
const TimestampFormat = "2006-01-02 15:04:05"

// CrawlHeader 爬取报告表头(列顺序是输出契约的一部分)
var CrawlHeader = []string{"Channel", "Link", "Timestamp", "MatchedSources"}

// Message 聊天平台的一条消息
type Message struct {
	ID        int64
	Timestamp time.Time
	Text      string
}

// Ref 返回消息的游标引用
func (m Message) Ref() MessageRef {
	return MessageRef{ID: m.ID, Timestamp: m.Timestamp}
}

// MessageRef 消息引用(id + 时间戳)
type MessageRef struct {
	ID        int64
	Timestamp time.Time
}

// IsZero 是否为空引用
func (r MessageRef) IsZero() bool {
	return r.ID == 0 && r.Timestamp.IsZero()
}

// CrawlCursor 单个频道的分页状态
// Oldest 的时间戳只会单调不增, LowestID 同样单调不增
type CrawlCursor struct {
	Oldest         MessageRef
	Newest         MessageRef
	LowestID       int64 // 已观察到的最小消息ID
	BatchesFetched int
}

// Observe 用一条消息更新最旧/最新引用
// 时间戳相同时取ID较小的消息作为最旧
func (c *CrawlCursor) Observe(m Message) {
	ref := m.Ref()
	if c.Oldest.IsZero() || ref.Timestamp.Before(c.Oldest.Timestamp) ||
		(ref.Timestamp.Equal(c.Oldest.Timestamp) && ref.ID < c.Oldest.ID) {
		c.Oldest = ref
	}
	if c.LowestID == 0 || ref.ID < c.LowestID {
		c.LowestID = ref.ID
	}
	if c.Newest.IsZero() || ref.Timestamp.After(c.Newest.Timestamp) {
		c.Newest = ref
	}
}

// Exhausted 批次完成后的停止条件
// 最旧消息早于threshold,或已达到maxBatches批次
func (c CrawlCursor) Exhausted(threshold time.Time, maxBatches int) bool {
	if maxBatches > 0 && c.BatchesFetched >= maxBatches {
		return true
	}
	return !c.Oldest.IsZero() && c.Oldest.Timestamp.Before(threshold)
}

// Checkpoint 下一次请求的上界(不含): 已观察到的最小消息ID
// 同一秒内的多条消息不会因上界落在较大的ID上而被重复返回
func (c CrawlCursor) Checkpoint() int64 {
	return c.LowestID
}

// LinkOccurrence 频道中一次URL出现
type LinkOccurrence struct {
	URL       string
	Timestamp time.Time
}

// ChannelLinks 单个频道的爬取结果
type ChannelLinks struct {
	Channel string
	Links   []LinkOccurrence
}

// CrawlResult 按频道登记顺序排列的爬取结果
type CrawlResult []ChannelLinks

// Occurrences 返回URL出现总数
func (r CrawlResult) Occurrences() int {
	total := 0
	for _, ch := range r {
		total += len(ch.Links)
	}
	return total
}

// ChannelLinkRecord 交叉比对后的爬取报告行
type ChannelLinkRecord struct {
	Channel        string
	URL            string
	Timestamp      time.Time
	MatchedSources []string
}

// Fields 按表头顺序返回列值
func (r ChannelLinkRecord) Fields() []string {
	return []string{
		r.Channel,
		r.URL,
		r.Timestamp.UTC().Format(TimestampFormat),
		strings.Join(r.MatchedSources, ","),
	}
}

// ChannelEntry 频道登记项: 可读名称 -> 平台频道标识
type ChannelEntry struct {
	Name string
	ID   string
}

// ChannelRegistry 有序的频道登记表
type ChannelRegistry []ChannelEntry

// CrawlStats 爬取统计
type CrawlStats struct {
	Channels       int      `json:"channels"`        // 登记的频道数
	Succeeded      int      `json:"succeeded"`       // 成功完成的频道数
	Failed         int      `json:"failed"`          // 失败(被跳过)的频道数
	Batches        int      `json:"batches"`         // 总批次数
	Messages       int      `json:"messages"`        // 总消息数
	Links          int      `json:"links"`           // URL出现总数
	Duration       float64  `json:"duration"`        // 耗时(秒)
	FailedChannels []string `json:"failed_channels"` // 失败的频道名
}
