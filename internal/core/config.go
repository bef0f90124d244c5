package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/linkgrab/internal/config"
	"github.com/RecoveryAshes/linkgrab/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// 环境变量前缀, 如 LINKGRAB_VERIFY_WORKERS
const envPrefix = "LINKGRAB"

// 支持的输出格式
const (
	FormatTSV   = "tsv"
	FormatTable = "table"
)

// Config 应用程序配置
type Config struct {
	Verify  VerifyConfig  `mapstructure:"verify"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`

	// 实际读取的配置文件, 未找到时为空
	ConfigFile string `mapstructure:"-"`
}

// VerifyConfig 链接验证配置
type VerifyConfig struct {
	Workers            int    `mapstructure:"workers"`
	MaxWorkers         int    `mapstructure:"max_workers"`
	Timeout            int    `mapstructure:"timeout"` // 秒
	MaxBodySize        int64  `mapstructure:"max_body_size"`
	CacheDir           string `mapstructure:"cache_dir"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	Progress           bool   `mapstructure:"progress"`
}

// CrawlConfig 频道爬取配置
type CrawlConfig struct {
	WindowHours  int    `mapstructure:"window_hours"`
	BatchSize    int    `mapstructure:"batch_size"`
	MaxBatches   int    `mapstructure:"max_batches"`
	ChannelsFile string `mapstructure:"channels_file"`
	ExportDir    string `mapstructure:"export_dir"`
}

// HTTPConfig HTTP请求配置
type HTTPConfig struct {
	Headers map[string]string `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Format      string `mapstructure:"format"`
	SummaryFile string `mapstructure:"summary_file"`
}

// LoadConfig 加载配置文件
// configPath为空时搜索默认位置, 都不存在时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		// 显式指定的文件必须存在
		if err := config.ValidateFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".linkgrab"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
		// 配置文件不存在,使用默认值
	} else if configPath == "" {
		if err := config.ValidateFileSize(v.ConfigFileUsed()); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	if cfg.HTTP.Headers == nil {
		cfg.HTTP.Headers = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigError{FilePath: cfg.ConfigFile, Cause: err}
	}
	return &cfg, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 验证配置默认值
	v.SetDefault("verify.workers", 0)
	v.SetDefault("verify.max_workers", 64)
	v.SetDefault("verify.timeout", 30)
	v.SetDefault("verify.max_body_size", 10*1024*1024)
	v.SetDefault("verify.cache_dir", "")
	v.SetDefault("verify.insecure_skip_verify", true)
	v.SetDefault("verify.progress", true)

	// 爬取配置默认值
	v.SetDefault("crawl.window_hours", 36)
	v.SetDefault("crawl.batch_size", 200)
	v.SetDefault("crawl.max_batches", 99)
	v.SetDefault("crawl.channels_file", "telechannels.json")
	v.SetDefault("crawl.export_dir", "")

	v.SetDefault("http.headers", map[string]string{})

	// 日志配置默认值
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.format", FormatTSV)
	v.SetDefault("output.summary_file", "")
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	switch {
	case c.Verify.Workers < 0:
		return fmt.Errorf("verify.workers 不能为负数: %d", c.Verify.Workers)
	case c.Verify.MaxWorkers < 0:
		return fmt.Errorf("verify.max_workers 不能为负数: %d", c.Verify.MaxWorkers)
	case c.Verify.Timeout <= 0:
		return fmt.Errorf("verify.timeout 必须大于0: %d", c.Verify.Timeout)
	case c.Verify.MaxBodySize <= 0:
		return fmt.Errorf("verify.max_body_size 必须大于0: %d", c.Verify.MaxBodySize)
	case c.Crawl.WindowHours <= 0:
		return fmt.Errorf("crawl.window_hours 必须大于0: %d", c.Crawl.WindowHours)
	case c.Crawl.BatchSize <= 0:
		return fmt.Errorf("crawl.batch_size 必须大于0: %d", c.Crawl.BatchSize)
	case c.Crawl.MaxBatches <= 0:
		return fmt.Errorf("crawl.max_batches 必须大于0: %d", c.Crawl.MaxBatches)
	}

	if c.Output.Format != FormatTSV && c.Output.Format != FormatTable {
		return fmt.Errorf("output.format 必须是 %s 或 %s: %q", FormatTSV, FormatTable, c.Output.Format)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level 无效: %q", c.Logging.Level)
	}
	return nil
}

// MergeVerifyFlags 合并验证命令的命令行参数, 零值表示未指定
func (c *Config) MergeVerifyFlags(workers int, cacheDir string) {
	if workers > 0 {
		c.Verify.Workers = workers
	}
	if cacheDir != "" {
		c.Verify.CacheDir = cacheDir
	}
}

// MergeCrawlFlags 合并爬取命令的命令行参数, 零值表示未指定
func (c *Config) MergeCrawlFlags(hours int, channelsFile, exportDir string) {
	if hours > 0 {
		c.Crawl.WindowHours = hours
	}
	if channelsFile != "" {
		c.Crawl.ChannelsFile = channelsFile
	}
	if exportDir != "" {
		c.Crawl.ExportDir = exportDir
	}
}

// MergeOutputFlags 合并输出相关的命令行参数
func (c *Config) MergeOutputFlags(format, summaryFile string) {
	if format != "" {
		c.Output.Format = format
	}
	if summaryFile != "" {
		c.Output.SummaryFile = summaryFile
	}
}

// ResolveLogLevel 确定日志级别
// 优先级: --log-level > -d > -v > 配置文件
func ResolveLogLevel(flagLevel string, debug, verbose bool, configured string) string {
	switch {
	case flagLevel != "":
		return flagLevel
	case debug:
		return "debug"
	case verbose:
		return "info"
	case configured != "":
		return configured
	default:
		return "warn"
	}
}
