package crawlers

import (
	"context"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
)

// Progress 进度报告接口(progressbar满足此接口)
type Progress interface {
	Add(num int) error
}

// VerifierOptions 验证器选项
type VerifierOptions struct {
	Workers    int      // 工作池大小, <1 时按资源自动计算
	MaxWorkers int      // 自动计算时的上限, 0表示不限
	Progress   Progress // 可为nil
}

// LinkVerifier 并发链接验证器
// 每个唯一URL只抓取一次,抓取与分类在工作池中并行执行
type LinkVerifier struct {
	fetcher  Fetcher
	workers  int
	progress Progress
	logger   zerolog.Logger

	stats *models.VerifyStats
}

// NewLinkVerifier 创建链接验证器
func NewLinkVerifier(fetcher Fetcher, opts VerifierOptions, logger zerolog.Logger) *LinkVerifier {
	workers := opts.Workers
	if workers < 1 {
		workers = NewResourceMonitor(ResourceMonitorConfig{MaxWorkers: opts.MaxWorkers}, logger).CalculateMaxWorkers()
	}
	return &LinkVerifier{
		fetcher:  fetcher,
		workers:  workers,
		progress: opts.Progress,
		logger:   logger,
	}
}

// Workers 返回工作池大小
func (v *LinkVerifier) Workers() int {
	return v.workers
}

// Verify 验证一组URL,返回 URL -> 验证结果
// 重复URL只抓取一次; ctx取消时返回已完成的部分结果和ctx.Err()
func (v *LinkVerifier) Verify(ctx context.Context, urls []string) (map[string]models.VerificationResult, error) {
	startTime := time.Now()

	pool := NewWorkerPool(v.workers, v.check)
	if v.progress != nil {
		pool.OnDone(func(string) {
			_ = v.progress.Add(1)
		})
	}

	unique := dedupeKeys(urls)
	v.logger.Info().Int("unique_urls", len(unique)).Int("workers", pool.Workers()).Msg("开始验证链接")

	results, err := pool.Run(ctx, unique)

	stats := models.NewVerifyStats(results)
	stats.UniqueURLs = len(unique)
	stats.Workers = pool.Workers()
	stats.Duration = time.Since(startTime).Seconds()
	v.stats = &stats

	event := v.logger.Info()
	if err != nil {
		event = v.logger.Warn().Err(err)
	}
	event.
		Int("fetched", stats.Fetched).
		Int("unreachable", stats.Unreachable).
		Int("redirected", stats.Redirected).
		Float64("duration_sec", stats.Duration).
		Msg("链接验证结束")

	return results, err
}

// Stats 返回最近一次Verify的统计
func (v *LinkVerifier) Stats() *models.VerifyStats {
	return v.stats
}

// check 抓取并分类单个URL
// ctx已取消时返回错误,该URL不写入结果
func (v *LinkVerifier) check(ctx context.Context, rawURL string) (models.VerificationResult, error) {
	v.logger.Debug().Str("url", rawURL).Msg("获取链接")

	resp, err := v.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.VerificationResult{}, ctxErr
		}
		v.logger.Warn().Err(err).Str("url", rawURL).Msg("连接失败")
	}

	result := classifyResponse(rawURL, resp, err)
	v.logger.Debug().
		Str("url", rawURL).
		Str("status", result.Status).
		Str("redirect", result.Redirect).
		Msg("链接验证完成")
	return result, nil
}
