package utils

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// SensitiveKeywords 敏感名称关键字, 头部名称和URL查询参数共用
	SensitiveKeywords = []string{
		"authorization",
		"cookie",
		"token",
		"key",
		"secret",
		"password",
		"credential",
		"session",
		"sig",
	}
)

// 脱敏占位符
const redacted = "***"

// HeaderRedactor 脱敏器
// 日志中的头部和URL(查询参数、userinfo)在输出前经过脱敏
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor 创建脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{
		sensitiveKeywords: SensitiveKeywords,
	}
}

// IsSensitive 检查名称是否包含敏感关键字
func (hr *HeaderRedactor) IsSensitive(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactValue 脱敏单个值
func (hr *HeaderRedactor) RedactValue(name, value string) string {
	if !hr.IsSensitive(name) {
		return value
	}

	// Bearer Token 仅保留前缀
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer " + redacted
	}
	// 足够长时保留首尾各4位
	if len(value) > 12 {
		return value[:4] + redacted + value[len(value)-4:]
	}
	return redacted
}

// Redact 脱敏整个http.Header, 返回安全的字符串map
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		result[name] = hr.RedactValue(name, values[0])
	}
	return result
}

// Dict 以zerolog字典形式输出脱敏后的头部, 键按名称排序
func (hr *HeaderRedactor) Dict(headers http.Header) *zerolog.Event {
	safe := hr.Redact(headers)
	names := make([]string, 0, len(safe))
	for name := range safe {
		names = append(names, name)
	}
	sort.Strings(names)

	dict := zerolog.Dict()
	for _, name := range names {
		dict = dict.Str(name, safe[name])
	}
	return dict
}

// RedactURL 脱敏URL中的密码和敏感查询参数, 无法解析时原样返回
func (hr *HeaderRedactor) RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	changed := false
	if u.User != nil {
		_, changed = u.User.Password()
	}

	// 逐个替换查询参数, 保留原有顺序和编码
	if u.RawQuery != "" {
		params := strings.Split(u.RawQuery, "&")
		for i, param := range params {
			name, _, _ := strings.Cut(param, "=")
			if decoded, err := url.QueryUnescape(name); err == nil && hr.IsSensitive(decoded) {
				params[i] = name + "=" + redacted
				changed = true
			}
		}
		u.RawQuery = strings.Join(params, "&")
	}

	if !changed {
		return rawURL
	}
	// Redacted 将密码替换为 xxxxx
	return u.Redacted()
}
