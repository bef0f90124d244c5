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

type verifyOptions struct {
	workers    int
	cacheDir   string
	noProgress bool
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <workbook.xlsx|urls.txt>",
		Short: "验证工作簿中的链接",
		Long: `读取工作簿每个工作表前两列中的链接, 并发请求每个唯一URL,
输出 Sheet, Status, Link, Redirect, Title, Server, Description 七列报告。

无法连接的URL状态为 0, Server 为 ConnectionError。
非 .xlsx 文件按每行一个URL的文本文件读取。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateVerifyFlags(args[0], opts.workers); err != nil {
				return err
			}
			return runVerify(cmd.Context(), root, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "并发数 (0 按CPU和内存自动计算)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "HTTP响应缓存目录")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "不显示进度条")
	return cmd
}

func runVerify(ctx context.Context, root *rootOptions, input string, opts *verifyOptions) error {
	a := root.app
	cfg := a.config
	cfg.MergeVerifyFlags(opts.workers, opts.cacheDir)
	startTime := time.Now()

	links, err := sources.LoadLinks(input, a.logger)
	if err != nil {
		return err
	}
	urls := links.UniqueURLs()
	a.logger.Info().
		Int("sources", links.Len()).
		Int("occurrences", links.Occurrences()).
		Int("unique", len(urls)).
		Msg("链接读取完成")

	// 创建HTTP头部管理器
	headerManager, err := core.NewHeaderManager(cfg.HTTP.Headers, root.headers, a.logger)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	// 头部非法时在发出任何请求前失败
	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}

	fetcher := crawlers.NewFetcher(crawlers.FetcherConfig{
		Timeout:            time.Duration(cfg.Verify.Timeout) * time.Second,
		MaxBodySize:        cfg.Verify.MaxBodySize,
		InsecureSkipVerify: cfg.Verify.InsecureSkipVerify,
		CacheDir:           cfg.Verify.CacheDir,
		Headers:            headerManager,
	}, a.logger)

	verifierOpts := crawlers.VerifierOptions{
		Workers:    cfg.Verify.Workers,
		MaxWorkers: cfg.Verify.MaxWorkers,
	}
	if cfg.Verify.Progress && !opts.noProgress && len(urls) > 0 {
		verifierOpts.Progress = utils.NewProgressBar(len(urls), "验证链接", a.stderr)
	}
	verifier := crawlers.NewLinkVerifier(fetcher, verifierOpts, a.logger)

	results, verifyErr := verifier.Verify(ctx, urls)
	if verifyErr != nil {
		// 中断时只输出已验证的链接
		a.logger.Warn().Int("verified", len(results)).Int("total", len(urls)).Msg("验证被中断,输出部分结果")
		links = links.Filter(func(url string) bool {
			_, ok := results[url]
			return ok
		})
	}

	rows, err := core.Aggregate(links, results)
	if err != nil {
		return err
	}

	reporter := utils.NewReporter(a.stdout, root.output, cfg.Output.Format, a.logger)
	if err := reporter.WriteVerification(rows); err != nil {
		return err
	}

	endTime := time.Now()
	summary := &models.RunSummary{
		RunID:     a.runID,
		Command:   "verify",
		Input:     input,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime).Seconds(),
		Rows:      len(rows),
		Partial:   verifyErr != nil,
		Verify:    verifier.Stats(),
	}
	if err := reporter.SaveSummary(cfg.Output.SummaryFile, summary); err != nil {
		return err
	}

	if verifyErr != nil {
		return fmt.Errorf("验证被中断: %w", verifyErr)
	}
	return nil
}
