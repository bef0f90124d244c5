package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFinalURL(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		final     string
		want      string
	}{
		{"相同URL", "http://a.example/page", "http://a.example/page", "http://a.example/page"},
		{"非ASCII路径只是转义不同", "http://a.example/новини", "http://a.example/%D0%BD%D0%BE%D0%B2%D0%B8%D0%BD%D0%B8", "http://a.example/новини"},
		{"空路径与根路径", "http://a.example", "http://a.example/", "http://a.example"},
		{"主机大小写", "http://A.example/x", "http://a.example/x", "http://A.example/x"},
		{"查询转义不同", "http://a.example/s?q=мир", "http://a.example/s?q=%D0%BC%D0%B8%D1%80", "http://a.example/s?q=мир"},
		{"真正的重定向", "http://a.example/old", "https://a.example/new", "https://a.example/new"},
		{"协议升级", "http://a.example/x", "https://a.example/x", "https://a.example/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, err := url.Parse(tt.final)
			if err != nil {
				t.Fatalf("url.Parse(%q) error = %v", tt.final, err)
			}
			if got := finalURL(tt.requested, final); got != tt.want {
				t.Errorf("finalURL() = %q, 期望 %q", got, tt.want)
			}
		})
	}

	if got := finalURL("http://a.example", nil); got != "" {
		t.Errorf("final为nil时应返回空, 得到 %q", got)
	}
}

// TestFetchers_NonASCIIPath 测试非ASCII路径未重定向时Redirect为空
func TestFetchers_NonASCIIPath(t *testing.T) {
	target := "/" + url.PathEscape("новое")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/старое" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<title>%s</title>", strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer server.Close()

	fetchers := map[string]Fetcher{
		"http":  NewHTTPFetcher(FetcherConfig{Headers: testHeaders()}, zerolog.Nop()),
		"colly": NewCollyFetcher(FetcherConfig{Headers: testHeaders(), CacheDir: t.TempDir()}, zerolog.Nop()),
	}

	for name, fetcher := range fetchers {
		t.Run(name, func(t *testing.T) {
			plain := server.URL + "/новини"
			moved := server.URL + "/старое"
			results, err := newTestVerifier(fetcher).Verify(context.Background(), []string{plain, moved})
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}

			if got := results[plain]; got.Status != "200" || got.Redirect != "" || got.Title != "новини" {
				t.Errorf("未重定向的结果 = %+v, 期望 Status=200 Redirect为空", got)
			}
			if name == "http" {
				if got := results[moved]; !strings.HasSuffix(got.Redirect, target) {
					t.Errorf("重定向的结果 = %+v, 期望 Redirect以 %s 结尾", got, target)
				}
			}
		})
	}
}
