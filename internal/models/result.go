package models

import (
	"strconv"
)

const (
	// StatusUnreachable 无法建立连接时的状态码哨兵值
	StatusUnreachable = "0"

	// ServerConnectionError 无法建立连接时Server列的取值
	ServerConnectionError = "ConnectionError"

	// TitleUnknown 非HTML降级解析失败时的标题
	TitleUnknown = "?"
)

// VerificationHeader 验证报告表头(列顺序是输出契约的一部分)
var VerificationHeader = []string{"Sheet", "Status", "Link", "Redirect", "Title", "Server", "Description"}

// VerificationResult 单个URL的验证结果
// 每次运行中每个唯一URL恰好一个结果,所有字段都有定义好的默认值(空字符串)
type VerificationResult struct {
	URL         string `json:"url"`
	Status      string `json:"status"`      // HTTP状态码字符串, "0" 表示不可达
	Redirect    string `json:"redirect"`    // 重定向后的最终URL, 未重定向则为空
	Title       string `json:"title"`       // 页面标题
	Server      string `json:"server"`      // Server响应头
	Description string `json:"description"` // og:description
}

// ConnectionErrorResult 构造不可达URL的结果
func ConnectionErrorResult(url string) VerificationResult {
	return VerificationResult{
		URL:    url,
		Status: StatusUnreachable,
		Server: ServerConnectionError,
	}
}

// Reachable 是否成功建立连接
func (r VerificationResult) Reachable() bool {
	return r.Status != StatusUnreachable
}

// StatusClass 状态码类别: "2xx", "3xx", ... 不可达返回 "unreachable"
func (r VerificationResult) StatusClass() string {
	code, err := strconv.Atoi(r.Status)
	if err != nil || code <= 0 {
		return "unreachable"
	}
	return strconv.Itoa(code/100) + "xx"
}

// VerificationRow 验证报告的一行: 一个(来源, URL)出现
type VerificationRow struct {
	Sheet string
	VerificationResult
}

// Fields 按表头顺序返回列值
func (r VerificationRow) Fields() []string {
	return []string{r.Sheet, r.Status, r.URL, r.Redirect, r.Title, r.Server, r.Description}
}

// VerifyStats 验证统计
type VerifyStats struct {
	UniqueURLs   int            `json:"unique_urls"`  // 唯一URL数
	Fetched      int            `json:"fetched"`      // 实际完成的抓取数
	Unreachable  int            `json:"unreachable"`  // 不可达数
	Redirected   int            `json:"redirected"`   // 发生重定向数
	StatusCounts map[string]int `json:"status_count"` // 状态码类别计数
	Workers      int            `json:"workers"`      // 工作池大小
	Duration     float64        `json:"duration"`     // 耗时(秒)
}

// NewVerifyStats 根据结果集汇总统计
func NewVerifyStats(results map[string]VerificationResult) VerifyStats {
	stats := VerifyStats{
		Fetched:      len(results),
		StatusCounts: make(map[string]int),
	}
	for _, r := range results {
		if !r.Reachable() {
			stats.Unreachable++
		}
		if r.Redirect != "" {
			stats.Redirected++
		}
		stats.StatusCounts[r.StatusClass()]++
	}
	return stats
}
