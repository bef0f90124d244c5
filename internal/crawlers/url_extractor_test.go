package crawlers

import (
	"reflect"
	"testing"
)

func TestFirstURL(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"纯URL", "http://example.com", "http://example.com", true},
		{"HTTPS", "see https://example.com/a?b=c#d now", "https://example.com/a?b=c#d", true},
		{"取第一个", "https://first.example http://second.example", "https://first.example", true},
		{"http在https之前", "x http://a.example y https://b.example", "http://a.example", true},
		{"换行截断", "link:http://a.example\nnext", "http://a.example", true},
		{"制表符截断", "http://a.example\tb", "http://a.example", true},
		{"标点保留", "(http://a.example/x),", "http://a.example/x),", true},
		{"无URL", "no links here", "", false},
		{"仅协议名", "http:/broken", "", false},
		{"ftp不识别", "ftp://example.com", "", false},
		{"空字符串", "", "", false},
		{"中文全角空格截断", "http://a.example　其他", "http://a.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstURL(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FirstURL(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAllURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"多个URL", "a http://x.example b https://y.example/p c", []string{"http://x.example", "https://y.example/p"}},
		{"重复URL保留", "http://x.example http://x.example", []string{"http://x.example", "http://x.example"}},
		{"相连URL视为一个", "http://a.examplehttp://b.example", []string{"http://a.examplehttp://b.example"}},
		{"无URL", "nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllURLs(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllURLs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
