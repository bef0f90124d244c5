package crawlers

import (
	"strings"
	"unicode"
)

// URL识别的协议前缀
var urlSchemes = []string{"http://", "https://"}

// FirstURL 提取文本中第一个URL
// URL定义为以 http:// 或 https:// 开头的连续非空白字符串, 从左到右扫描,
// 不做规范化, 也不做协议前缀之外的校验
func FirstURL(text string) (string, bool) {
	start := indexScheme(text)
	if start < 0 {
		return "", false
	}
	return text[start : start+runLength(text[start:])], true
}

// AllURLs 按出现顺序提取文本中的全部URL
func AllURLs(text string) []string {
	var urls []string
	for {
		start := indexScheme(text)
		if start < 0 {
			return urls
		}
		end := start + runLength(text[start:])
		urls = append(urls, text[start:end])
		text = text[end:]
	}
}

// indexScheme 返回最靠左的协议前缀位置, 不存在返回-1
func indexScheme(text string) int {
	first := -1
	for _, scheme := range urlSchemes {
		if idx := strings.Index(text, scheme); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	return first
}

// runLength 返回从开头起连续非空白字符的字节长度
func runLength(s string) int {
	if idx := strings.IndexFunc(s, unicode.IsSpace); idx >= 0 {
		return idx
	}
	return len(s)
}
