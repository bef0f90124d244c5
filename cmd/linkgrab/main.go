package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/linkgrab/internal/core"
	"github.com/RecoveryAshes/linkgrab/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootOptions 全局命令行参数
type rootOptions struct {
	configFile string
	verbose    bool
	debug      bool
	logLevel   string

	// HTTP头部参数
	headers []string

	// 输出参数
	output  string
	format  string
	summary string

	// 在PersistentPreRunE中初始化
	app *app
}

// app 子命令共享的运行时状态
type app struct {
	config *core.Config
	logger zerolog.Logger
	closer io.Closer
	runID  string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "linkgrab",
		Short: "链接收集与验证工具",
		Long: `linkgrab - 链接收集、验证与交叉比对工具

  • verify: 读取工作簿(xlsx)前两列中的链接, 并发验证每个唯一URL的可达性、标题和描述
  • crawl:  分页读取频道消息, 收集时间窗口内的链接, 并与已知工作簿交叉比对

报告以TSV输出到标准输出, 日志输出到标准错误和 logs/ 目录。

示例:
  linkgrab verify links.xlsx -o report.tsv
  linkgrab verify links.xlsx -H "User-Agent: MyBot/1.0" --cache-dir .cache
  linkgrab crawl --export-dir exports --hours 48 --compare links.xlsx

版本: ` + Version + `
构建时间: ` + BuildTime,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateFormat(opts.format); err != nil {
				return err
			}

			// 加载配置
			config, err := core.LoadConfig(opts.configFile)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			config.MergeOutputFlags(opts.format, opts.summary)

			// 初始化日志系统
			runID := uuid.NewString()
			logConfig := utils.LogConfig{
				Level:      core.ResolveLogLevel(opts.logLevel, opts.debug, opts.verbose, config.Logging.Level),
				LogDir:     config.Logging.LogDir,
				MaxSize:    config.Logging.Rotation.MaxSize,
				MaxBackups: config.Logging.Rotation.MaxBackups,
				MaxAge:     config.Logging.Rotation.MaxAge,
				Compress:   config.Logging.Rotation.Compress,
				RunID:      runID,
				Console:    cmd.ErrOrStderr(),
			}
			logger, closer, err := utils.InitLogger(logConfig)
			if err != nil {
				return fmt.Errorf("初始化日志系统失败: %w", err)
			}

			opts.app = &app{
				config: config,
				logger: logger,
				closer: closer,
				runID:  runID,
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			}

			if config.ConfigFile != "" {
				logger.Debug().Str("file", config.ConfigFile).Msg("已加载配置文件")
			}
			return nil
		},
	}

	// 全局参数
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "配置文件路径")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "详细输出模式 (info)")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "调试输出模式 (debug)")
	flags.StringVar(&opts.logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	// 输出参数
	flags.StringVarP(&opts.output, "output", "o", "", "报告输出文件 (TSV)")
	flags.StringVar(&opts.format, "format", "", "标准输出格式 (tsv|table)")
	flags.StringVar(&opts.summary, "summary", "", "运行摘要JSON输出路径")

	// 添加子命令
	rootCmd.AddCommand(
		newVerifyCmd(opts),
		newCrawlCmd(opts),
		newValidateConfigCmd(opts),
		newInitConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd, opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		// 不需要加载配置
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "linkgrab %s\n", Version)
			fmt.Fprintf(out, "构建时间: %s\n", BuildTime)
		},
	}
}

// execute 构建并执行命令, 结束后关闭日志文件
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd, opts := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if opts.app != nil && opts.app.closer != nil {
		if cerr := opts.app.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("关闭日志文件失败: %w", cerr)
		}
	}
	return err
}

func main() {
	// 设置信号处理(Ctrl+C优雅退出, 输出已完成的部分结果)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		stop()
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
