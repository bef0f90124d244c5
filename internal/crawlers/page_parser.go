package crawlers

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"golang.org/x/net/html/charset"
)

const (
	// fallbackTitleMarker 降级路径中查找的标题标记
	fallbackTitleMarker = "<title>"

	// fallbackTitleLength 降级路径从标记之后截取的最大字符数
	fallbackTitleLength = 100
)

// classifyResponse 将一次抓取结果转换为验证结果
// fetchErr非空表示连接失败,返回不可达哨兵结果
func classifyResponse(requestURL string, resp *FetchResponse, fetchErr error) models.VerificationResult {
	if fetchErr != nil || resp == nil {
		return models.ConnectionErrorResult(requestURL)
	}

	result := models.VerificationResult{
		URL:    requestURL,
		Status: strconv.Itoa(resp.StatusCode),
		Server: resp.Header.Get("Server"),
	}
	if resp.FinalURL != "" && resp.FinalURL != requestURL {
		result.Redirect = resp.FinalURL
	}

	contentType := resp.Header.Get("Content-Type")
	if isHTMLContent(contentType) {
		if title, description, ok := parseHTMLMeta(resp.Body, contentType); ok {
			result.Title = title
			result.Description = description
			return result
		}
	}

	result.Title = fallbackTitle(resp.Body)
	return result
}

// isHTMLContent 判断Content-Type是否为HTML
func isHTMLContent(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "html")
}

// parseHTMLMeta 解析HTML文档,提取标题和og:description
// 先按声明的字符集转换为UTF-8
func parseHTMLMeta(body []byte, contentType string) (title, description string, ok bool) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", "", false
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", "", false
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if content, exists := doc.Find(`meta[property="og:description"]`).First().Attr("content"); exists {
		description = strings.NewReplacer("\n", " ", "\r", " ").Replace(content)
	}
	return title, description, true
}

// fallbackTitle 降级标题提取: 在原始内容中查找 <title> 标记并截取其后最多100个字符
// 仅用于非HTML响应或HTML解析失败, 找不到标记或内容不可读时返回 "?"
func fallbackTitle(body []byte) string {
	idx := bytes.Index(body, []byte(fallbackTitleMarker))
	if idx < 0 {
		return models.TitleUnknown
	}
	rest := body[idx+len(fallbackTitleMarker):]
	if !utf8.Valid(rest) {
		rest = bytes.ToValidUTF8(rest, nil)
	}

	text := string(rest)
	if utf8.RuneCountInString(text) > fallbackTitleLength {
		text = string([]rune(text)[:fallbackTitleLength])
	}
	return strings.TrimSpace(text)
}
