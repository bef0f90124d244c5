package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/RecoveryAshes/linkgrab/internal/utils"
	"github.com/rs/zerolog"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/99.0.4844.51 Safari/537.36"

	// DefaultAccept 默认Accept
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9," +
		"image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9"
)

// HeaderManager 管理HTTP请求头部
// 按优先级合并 默认 < 配置文件 < 命令行, 实现 HeaderProvider 接口
type HeaderManager struct {
	// defaults 系统默认头部, 模仿常见浏览器
	defaults http.Header

	// config 从配置文件 http.headers 读取的头部
	config http.Header

	// cli 从命令行 -H 解析的头部
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor
	logger    zerolog.Logger

	// 合并结果只计算一次, 供所有worker并发读取
	once   sync.Once
	merged http.Header
	err    error
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - configHeaders: 配置文件中的头部 (名称 -> 值)
//   - cliHeaders: 命令行传递的头部字符串列表, 格式 "Name: Value"
//
// 命令行参数格式错误时返回错误
func NewHeaderManager(configHeaders map[string]string, cliHeaders []string, logger zerolog.Logger) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	config := make(http.Header, len(configHeaders))
	for name, value := range configHeaders {
		config.Set(name, value)
	}

	return &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    config,
		cli:       cli,
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		logger:    logger,
	}, nil
}

// getDefaultHeaders 返回系统默认头部
func getDefaultHeaders() http.Header {
	return http.Header{
		"Upgrade-Insecure-Requests": []string{"1"},
		"User-Agent":                []string{DefaultUserAgent},
		"Accept":                    []string{DefaultAccept},
		"Accept-Language":           []string{"en-GB,en;q=0.9"},
		"Accept-Encoding":           []string{"gzip, deflate, br"},
	}
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		hm.logger.Error().Err(err).Msg("默认头部验证失败")
		return err
	}
	if err := hm.validator.Validate(hm.config); err != nil {
		hm.logger.Error().Err(err).Msg("配置文件头部验证失败")
		return err
	}
	if err := hm.validator.Validate(hm.cli); err != nil {
		hm.logger.Error().Err(err).Msg("命令行头部验证失败")
		return err
	}

	hm.logger.Debug().Msg("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = append([]string(nil), values...)
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 首次调用时验证并合并, 之后返回缓存结果的副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(func() {
		if err := hm.Validate(); err != nil {
			hm.err = err
			return
		}
		hm.merged = hm.GetMergedHeaders()
		hm.logger.Debug().Dict("headers", hm.redactor.Dict(hm.merged)).Msg("HTTP请求头部")
	})
	if hm.err != nil {
		return nil, hm.err
	}
	return hm.merged.Clone(), nil
}
