package main

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/linkgrab/internal/core"
	"github.com/RecoveryAshes/linkgrab/internal/crawlers"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/RecoveryAshes/linkgrab/internal/sources"
	"github.com/RecoveryAshes/linkgrab/internal/utils"
	"github.com/spf13/cobra"
)

type crawlOptions struct {
	hours     int
	compare   string
	channels  string
	exportDir string
}

func newCrawlCmd(root *rootOptions) *cobra.Command {
	opts := &crawlOptions{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "收集频道中的链接",
		Long: `按频道登记表(JSON对象: 名称 -> 频道标识)的顺序逐个读取频道消息,
从最新消息开始按批次向前翻页, 直到最旧消息超出时间窗口。

消息来自 Telegram Desktop 的JSON导出:
  <export-dir>/<频道标识>.json 或 <export-dir>/<频道标识>/result.json

输出 Channel, Link, Timestamp, MatchedSources 四列报告;
指定 --compare 时, MatchedSources 为包含该链接的工作表名(逗号分隔)。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateCrawlFlags(opts.hours, opts.compare); err != nil {
				return err
			}
			return runCrawl(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().IntVar(&opts.hours, "hours", 0, "时间窗口(小时), 0 使用配置 crawl.window_hours (默认36)")
	cmd.Flags().StringVar(&opts.compare, "compare", "", "用于交叉比对的工作簿")
	cmd.Flags().StringVar(&opts.channels, "channels", "", "频道登记表文件 (默认 telechannels.json)")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Telegram Desktop 导出目录")
	return cmd
}

func runCrawl(ctx context.Context, root *rootOptions, opts *crawlOptions) error {
	a := root.app
	cfg := a.config
	cfg.MergeCrawlFlags(opts.hours, opts.channels, opts.exportDir)
	startTime := time.Now()

	// 消息源配置缺失时在爬取前失败
	registry, err := sources.LoadRegistry(cfg.Crawl.ChannelsFile)
	if err != nil {
		return err
	}
	source, err := sources.NewTelegramExport(cfg.Crawl.ExportDir, a.logger)
	if err != nil {
		return err
	}

	var known *models.SourceLinkMap
	if opts.compare != "" {
		known, err = sources.LoadLinks(opts.compare, a.logger)
		if err != nil {
			return fmt.Errorf("读取对比文件失败: %w", err)
		}
	}

	crawler := crawlers.NewChannelCrawler(source, crawlers.CrawlerOptions{
		WindowHours: cfg.Crawl.WindowHours,
		BatchSize:   cfg.Crawl.BatchSize,
		MaxBatches:  cfg.Crawl.MaxBatches,
	}, a.logger)

	result, crawlErr := crawler.Crawl(ctx, registry)
	records := core.Match(result, known)

	reporter := utils.NewReporter(a.stdout, root.output, cfg.Output.Format, a.logger)
	if err := reporter.WriteCrawl(records); err != nil {
		return err
	}

	endTime := time.Now()
	summary := &models.RunSummary{
		RunID:     a.runID,
		Command:   "crawl",
		Input:     cfg.Crawl.ChannelsFile,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime).Seconds(),
		Rows:      len(records),
		Partial:   crawlErr != nil,
		Crawl:     crawler.Stats(),
	}
	if err := reporter.SaveSummary(cfg.Output.SummaryFile, summary); err != nil {
		return err
	}

	if crawlErr != nil {
		return fmt.Errorf("爬取被中断: %w", crawlErr)
	}
	return nil
}
