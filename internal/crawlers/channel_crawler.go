package crawlers

import (
	"context"
	"errors"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultWindowHours = 36
	DefaultBatchSize   = 200
	DefaultMaxBatches  = 99
)

// MessageSource 频道消息来源
// Messages 按从新到旧返回最多limit条ID严格小于maxID的消息, maxID为0表示不设上界;
// 频道不存在时返回 models.ErrChannelNotFound
type MessageSource interface {
	Messages(ctx context.Context, channelID string, maxID int64, limit int) ([]models.Message, error)
}

// CrawlerOptions 爬取选项
type CrawlerOptions struct {
	WindowHours int              // 时间窗口(小时)
	BatchSize   int              // 每批消息数
	MaxBatches  int              // 每个频道最多批次
	Now         func() time.Time // 时钟, nil使用time.Now
}

func (o CrawlerOptions) withDefaults() CrawlerOptions {
	if o.WindowHours <= 0 {
		o.WindowHours = DefaultWindowHours
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxBatches <= 0 {
		o.MaxBatches = DefaultMaxBatches
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ChannelCrawler 分页、按时间窗口停止的频道爬取器
// 频道之间、批次之间均顺序执行
type ChannelCrawler struct {
	source  MessageSource
	options CrawlerOptions
	logger  zerolog.Logger

	stats *models.CrawlStats
}

// NewChannelCrawler 创建频道爬取器
func NewChannelCrawler(source MessageSource, options CrawlerOptions, logger zerolog.Logger) *ChannelCrawler {
	return &ChannelCrawler{
		source:  source,
		options: options.withDefaults(),
		logger:  logger,
	}
}

// Crawl 按登记顺序爬取每个频道
// 单个频道失败只记录日志并跳过; ctx取消时返回已完成频道和当前频道已累积的结果以及ctx.Err()
func (cc *ChannelCrawler) Crawl(ctx context.Context, channels models.ChannelRegistry) (models.CrawlResult, error) {
	startTime := time.Now()
	threshold := cc.options.Now().Add(-time.Duration(cc.options.WindowHours) * time.Hour)

	stats := &models.CrawlStats{Channels: len(channels)}
	cc.stats = stats
	defer func() {
		stats.Duration = time.Since(startTime).Seconds()
	}()

	cc.logger.Info().
		Int("channels", len(channels)).
		Time("threshold", threshold).
		Msg("开始爬取频道")

	result := make(models.CrawlResult, 0, len(channels))
	for _, channel := range channels {
		links, err := cc.crawlChannel(ctx, channel, threshold, stats)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				if len(links) > 0 {
					result = append(result, models.ChannelLinks{Channel: channel.Name, Links: links})
					stats.Links += len(links)
				}
				cc.logger.Warn().Str("channel", channel.Name).Msg("爬取被取消,返回部分结果")
				return result, ctxErr
			}

			stats.Failed++
			stats.FailedChannels = append(stats.FailedChannels, channel.Name)
			if errors.Is(err, models.ErrChannelNotFound) {
				cc.logger.Warn().Str("channel", channel.Name).Str("id", channel.ID).Msg("无法连接频道")
			} else {
				cc.logger.Warn().Err(err).Str("channel", channel.Name).Str("id", channel.ID).Msg("频道爬取失败,已跳过")
			}
			continue
		}

		stats.Succeeded++
		stats.Links += len(links)
		result = append(result, models.ChannelLinks{Channel: channel.Name, Links: links})
	}

	cc.logger.Info().
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("links", stats.Links).
		Msg("频道爬取结束")
	return result, nil
}

// Stats 返回最近一次Crawl的统计
func (cc *ChannelCrawler) Stats() *models.CrawlStats {
	return cc.stats
}

// crawlChannel 爬取单个频道直到越过时间窗口、达到批次上限或历史耗尽
func (cc *ChannelCrawler) crawlChannel(ctx context.Context, channel models.ChannelEntry, threshold time.Time, stats *models.CrawlStats) ([]models.LinkOccurrence, error) {
	cc.logger.Info().Str("channel", channel.Name).Str("id", channel.ID).Msg("查找频道")

	var (
		cursor models.CrawlCursor
		links  []models.LinkOccurrence
	)

	for {
		if err := ctx.Err(); err != nil {
			return links, err
		}

		maxID := cursor.Checkpoint()
		cc.logger.Debug().
			Str("channel", channel.Name).
			Int("batch", cursor.BatchesFetched).
			Int64("max_id", maxID).
			Msg("获取消息批次")

		batch, err := cc.source.Messages(ctx, channel.ID, maxID, cc.options.BatchSize)
		if err != nil {
			return links, err
		}
		cursor.BatchesFetched++
		stats.Batches++
		stats.Messages += len(batch)

		if len(batch) == 0 {
			cc.logger.Debug().Str("channel", channel.Name).Msg("历史消息已耗尽")
			break
		}

		for _, message := range batch {
			cursor.Observe(message)
			for _, u := range AllURLs(message.Text) {
				links = append(links, models.LinkOccurrence{URL: u, Timestamp: message.Timestamp})
			}
		}

		if len(batch) < cc.options.BatchSize {
			cc.logger.Debug().Str("channel", channel.Name).Int("size", len(batch)).Msg("批次不足一整批,历史消息已耗尽")
			break
		}
		if cursor.Exhausted(threshold, cc.options.MaxBatches) {
			cc.logger.Debug().
				Str("channel", channel.Name).
				Int("batches", cursor.BatchesFetched).
				Msg("最旧消息超出时间窗口或达到批次上限")
			break
		}
		// 来源未遵守maxID上界时游标不会移动,继续请求只会重复同一批
		if maxID != 0 && cursor.Checkpoint() >= maxID {
			cc.logger.Warn().Str("channel", channel.Name).Int64("max_id", maxID).Msg("批次未推进游标,停止爬取")
			break
		}
		cc.logger.Info().Str("channel", channel.Name).Int64("max_id", cursor.Checkpoint()).Msg("继续深入")
	}

	cc.logger.Info().
		Str("channel", channel.Name).
		Int("batches", cursor.BatchesFetched).
		Int("links", len(links)).
		Msg("频道完成")
	return links, nil
}
