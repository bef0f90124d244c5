package models

// SourceLinkMap 来源 -> 有序URL列表
// 来源(工作表名或频道名)按首次写入顺序保存,每个来源内的URL保持出现顺序,
// 同一来源内的重复URL不去重(被引用两次就产生两行报告)
type SourceLinkMap struct {
	order []string
	links map[string][]string
}

// NewSourceLinkMap 创建空的SourceLinkMap
func NewSourceLinkMap() *SourceLinkMap {
	return &SourceLinkMap{
		links: make(map[string][]string),
	}
}

// Add 向来源追加一个URL出现
func (m *SourceLinkMap) Add(source, url string) {
	if _, exists := m.links[source]; !exists {
		m.order = append(m.order, source)
	}
	m.links[source] = append(m.links[source], url)
}

// Sources 按插入顺序返回所有来源
func (m *SourceLinkMap) Sources() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Links 返回来源的URL列表(按出现顺序,含重复)
func (m *SourceLinkMap) Links(source string) []string {
	if m == nil {
		return nil
	}
	return m.links[source]
}

// Len 返回来源数量
func (m *SourceLinkMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Occurrences 返回所有来源的URL出现总数
func (m *SourceLinkMap) Occurrences() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, source := range m.order {
		total += len(m.links[source])
	}
	return total
}

// UniqueURLs 返回去重后的URL集合,顺序为首次出现顺序
func (m *SourceLinkMap) UniqueURLs() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{})
	urls := make([]string, 0)
	for _, source := range m.order {
		for _, url := range m.links[source] {
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls
}

// Filter 返回只保留keep为true的URL的新映射,没有剩余URL的来源被丢弃
// 用于中断后只输出已验证的部分
func (m *SourceLinkMap) Filter(keep func(url string) bool) *SourceLinkMap {
	out := NewSourceLinkMap()
	if m == nil {
		return out
	}
	for _, source := range m.order {
		for _, url := range m.links[source] {
			if keep(url) {
				out.Add(source, url)
			}
		}
	}
	return out
}
