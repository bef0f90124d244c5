package crawlers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const (
	// DefaultFetchTimeout 单次请求超时
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBodySize 响应体读取上限
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// 跟随重定向的最大次数
	maxRedirects = 10
)

// FetchResponse 一次抓取的结果
type FetchResponse struct {
	StatusCode int
	FinalURL   string // 跟随重定向后的URL
	Header     http.Header
	Body       []byte // 已按Content-Encoding解压
}

// Fetcher 抓取单个URL
// 返回错误表示连接未能建立(DNS、拒绝连接、超时、TLS),HTTP错误状态码不算错误
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResponse, error)
}

// FetcherConfig 抓取器配置
type FetcherConfig struct {
	Timeout            time.Duration
	MaxBodySize        int64
	InsecureSkipVerify bool
	CacheDir           string // 非空时使用带磁盘缓存的CollyFetcher
	Headers            models.HeaderProvider
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultFetchTimeout
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	return c
}

// NewFetcher 根据配置选择抓取器实现
func NewFetcher(config FetcherConfig, logger zerolog.Logger) Fetcher {
	if config.CacheDir != "" {
		return NewCollyFetcher(config, logger)
	}
	return NewHTTPFetcher(config, logger)
}

// newHTTPClient 创建HTTP客户端
// InsecureSkipVerify 由 verify.insecure_skip_verify 控制, 默认为true
func newHTTPClient(config FetcherConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: config.InsecureSkipVerify,
			},
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("重定向次数超过%d次", maxRedirects)
			}
			return nil
		},
	}
}

// requestHeaders 获取请求头部, 失败时记录警告并返回空头部
func requestHeaders(provider models.HeaderProvider, logger zerolog.Logger) http.Header {
	if provider == nil {
		return http.Header{}
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		logger.Warn().Err(err).Msg("获取HTTP头部失败")
		return http.Header{}
	}
	return headers
}

// decodeBody 解压响应体, 失败时退回原始内容
func decodeBody(rawURL string, header http.Header, body []byte, limit int64, logger zerolog.Logger) []byte {
	encoding := header.Get("Content-Encoding")
	if encoding == "" {
		return body
	}
	decompressed, err := decompressResponse(encoding, body, limit)
	if err != nil {
		logger.Debug().Err(err).Str("url", rawURL).Str("encoding", encoding).Msg("解压响应失败,使用原始内容")
		return body
	}
	return decompressed
}

// HTTPFetcher 基于net/http的抓取器,请求随ctx取消而中止
type HTTPFetcher struct {
	client  *http.Client
	config  FetcherConfig
	headers models.HeaderProvider
	logger  zerolog.Logger
}

// NewHTTPFetcher 创建HTTP抓取器
func NewHTTPFetcher(config FetcherConfig, logger zerolog.Logger) *HTTPFetcher {
	config = config.withDefaults()
	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("insecure_skip_verify", config.InsecureSkipVerify).
		Msg("HTTP抓取器初始化")
	return &HTTPFetcher{
		client:  newHTTPClient(config),
		config:  config,
		headers: config.Headers,
		logger:  logger,
	}
}

// Fetch 抓取URL
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	for name, values := range requestHeaders(f.headers, f.logger) {
		if len(values) > 0 {
			req.Header.Set(name, values[0])
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize))
	if err != nil {
		// 响应已建立,正文读取失败只影响标题提取
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("读取响应体失败")
	}

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL(rawURL, resp.Request.URL),
		Header:     resp.Header,
		Body:       decodeBody(rawURL, resp.Header, body, f.config.MaxBodySize, f.logger),
	}, nil
}

// finalURL 返回响应对应的URL
// 与请求的URL只是转义形式不同(如非ASCII路径)时返回请求的原样
func finalURL(requested string, final *url.URL) string {
	if final == nil {
		return ""
	}
	if req, err := url.Parse(requested); err == nil && sameURL(req, final) {
		return requested
	}
	return final.String()
}

// sameURL 按解码后的各部分比较两个URL
func sameURL(a, b *url.URL) bool {
	if !strings.EqualFold(a.Scheme, b.Scheme) || !strings.EqualFold(a.Host, b.Host) {
		return false
	}
	if a.User.String() != b.User.String() || a.Fragment != b.Fragment {
		return false
	}
	pathA, pathB := a.Path, b.Path
	if pathA == "" {
		pathA = "/"
	}
	if pathB == "" {
		pathB = "/"
	}
	if pathA != pathB {
		return false
	}
	if a.RawQuery == b.RawQuery {
		return true
	}
	queryA, errA := url.QueryUnescape(a.RawQuery)
	queryB, errB := url.QueryUnescape(b.RawQuery)
	return errA == nil && errB == nil && queryA == queryB
}

// colly上下文中保存响应和原始请求URL的键
const (
	collyResponseKey  = "linkgrab_response"
	collyRequestedKey = "linkgrab_requested"
)

// CollyFetcher 基于colly的抓取器,响应缓存于CacheDir
// 命中缓存时不经过网络,也无法得到重定向后的URL
type CollyFetcher struct {
	collector *colly.Collector
	config    FetcherConfig
	headers   models.HeaderProvider
	logger    zerolog.Logger
}

// NewCollyFetcher 创建带磁盘缓存的抓取器
func NewCollyFetcher(config FetcherConfig, logger zerolog.Logger) *CollyFetcher {
	config = config.withDefaults()

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(int(config.MaxBodySize)),
		colly.CacheDir(config.CacheDir),
	)
	c.SetClient(newHTTPClient(config))
	c.SetRequestTimeout(config.Timeout)

	f := &CollyFetcher{
		collector: c,
		config:    config,
		headers:   config.Headers,
		logger:    logger,
	}

	c.OnResponse(func(r *colly.Response) {
		header := http.Header{}
		if r.Headers != nil {
			header = r.Headers.Clone()
		}
		requestURL := r.Request.URL.String()
		if requested := r.Ctx.Get(collyRequestedKey); requested != "" {
			requestURL = finalURL(requested, r.Request.URL)
		}
		r.Ctx.Put(collyResponseKey, &FetchResponse{
			StatusCode: r.StatusCode,
			FinalURL:   requestURL,
			Header:     header,
			Body:       decodeBody(requestURL, header, r.Body, config.MaxBodySize, logger),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Debug().Err(err).Str("url", r.Request.URL.String()).Msg("colly请求失败")
	})

	logger.Debug().Str("cache_dir", config.CacheDir).Msg("colly抓取器初始化,启用响应缓存")
	return f
}

// Fetch 抓取URL
// colly没有按请求的ctx,取消只在请求开始前检查,进行中的请求受Timeout约束
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	reqCtx.Put(collyRequestedKey, rawURL)
	if err := f.collector.Request(http.MethodGet, rawURL, nil, reqCtx, requestHeaders(f.headers, f.logger)); err != nil {
		return nil, err
	}

	resp, ok := reqCtx.GetAny(collyResponseKey).(*FetchResponse)
	if !ok {
		return nil, errors.New("colly未返回响应")
	}
	return resp, nil
}
