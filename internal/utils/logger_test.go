package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogConfig(t *testing.T, level string) (LogConfig, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	return LogConfig{
		Level:      level,
		LogDir:     t.TempDir(),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
		RunID:      "run-test",
		Console:    &console,
		NoColor:    true,
	}, &console
}

func TestInitLogger(t *testing.T) {
	config, console := testLogConfig(t, "debug")

	logger, closer, err := InitLogger(config)
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	defer closer.Close()

	logger.Info().Msg("测试信息日志")
	logger.Error().Msg("测试错误日志")

	mainLog, err := os.ReadFile(filepath.Join(config.LogDir, MainLogFile))
	if err != nil {
		t.Fatalf("读取主日志失败: %v", err)
	}
	if !strings.Contains(string(mainLog), "测试信息日志") || !strings.Contains(string(mainLog), "run-test") {
		t.Errorf("主日志内容不完整: %s", mainLog)
	}

	errorLog, err := os.ReadFile(filepath.Join(config.LogDir, ErrorLogFile))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}
	if strings.Contains(string(errorLog), "测试信息日志") {
		t.Error("错误日志不应包含info级别日志")
	}
	if !strings.Contains(string(errorLog), "测试错误日志") {
		t.Error("错误日志应包含error级别日志")
	}

	if !strings.Contains(console.String(), "测试信息日志") {
		t.Errorf("控制台输出缺少日志: %s", console.String())
	}
}

func TestLogLevels(t *testing.T) {
	config, console := testLogConfig(t, "warn")

	logger, closer, err := InitLogger(config)
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	defer closer.Close()

	logger.Debug().Msg("调试日志 - 不应显示")
	logger.Info().Msg("信息日志 - 不应显示")
	logger.Warn().Msgf("格式化警告日志: %d", 123)

	out := console.String()
	if strings.Contains(out, "不应显示") {
		t.Errorf("warn级别下不应输出debug/info日志: %s", out)
	}
	if !strings.Contains(out, "格式化警告日志: 123") {
		t.Errorf("应输出warn日志: %s", out)
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	config, _ := testLogConfig(t, "loud")
	if _, _, err := InitLogger(config); err == nil {
		t.Error("无效日志级别应返回错误")
	}
}

func TestInitLogger_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := InitLogger(LogConfig{Level: "info", Console: &console, NoColor: true})
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	logger.Info().Msg("仅控制台")
	if err := closer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !strings.Contains(console.String(), "仅控制台") {
		t.Error("控制台应收到日志")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "warn" {
		t.Errorf("默认日志级别错误: 期望 'warn', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
