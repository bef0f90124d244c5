package core

import (
	"github.com/RecoveryAshes/linkgrab/internal/models"
)

// Matcher 交叉比对器
// 构造时建立 URL -> 来源列表 的索引, 来源顺序与已知映射一致
type Matcher struct {
	index map[string][]string
}

// NewMatcher 根据已知链接映射建立索引, known可为nil
func NewMatcher(known *models.SourceLinkMap) *Matcher {
	index := make(map[string][]string)
	for _, source := range known.Sources() {
		for _, url := range known.Links(source) {
			sources := index[url]
			// 同一来源内的重复URL只记录一次
			if n := len(sources); n > 0 && sources[n-1] == source {
				continue
			}
			index[url] = append(sources, source)
		}
	}
	return &Matcher{index: index}
}

// Sources 返回包含该URL的全部来源, 精确匹配
func (m *Matcher) Sources(url string) []string {
	sources := m.index[url]
	if len(sources) == 0 {
		return nil
	}
	return append([]string(nil), sources...)
}

// Match 为每个(频道, URL)标注已知来源, 保持爬取结果的顺序
func (m *Matcher) Match(result models.CrawlResult) []models.ChannelLinkRecord {
	records := make([]models.ChannelLinkRecord, 0, result.Occurrences())
	for _, channel := range result {
		for _, link := range channel.Links {
			records = append(records, models.ChannelLinkRecord{
				Channel:        channel.Channel,
				URL:            link.URL,
				Timestamp:      link.Timestamp,
				MatchedSources: m.Sources(link.URL),
			})
		}
	}
	return records
}

// Match 交叉比对的便捷函数
func Match(result models.CrawlResult, known *models.SourceLinkMap) []models.ChannelLinkRecord {
	return NewMatcher(known).Match(result)
}
