package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/linkgrab/internal/core"
)

// 命令行参数取值上限
const (
	maxWorkersFlag = 1000
	maxWindowHours = 24 * 365
)

// ValidateFormat 验证输出格式, 空字符串表示使用配置
func ValidateFormat(format string) error {
	switch format {
	case "", core.FormatTSV, core.FormatTable:
		return nil
	default:
		return fmt.Errorf("无效的输出格式: %s (有效值: %s, %s)", format, core.FormatTSV, core.FormatTable)
	}
}

// ValidateInputFile 验证输入文件存在且不是目录
func ValidateInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("输入文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("输入文件不可用: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("输入路径是目录: %s", path)
	}
	return nil
}

// ValidateVerifyFlags 验证 verify 命令参数
func ValidateVerifyFlags(input string, workers int) error {
	if err := ValidateInputFile(input); err != nil {
		return err
	}
	// 0 表示读取配置或自动计算
	if workers < 0 || workers > maxWorkersFlag {
		return fmt.Errorf("并发数必须在0-%d之间,当前值: %d", maxWorkersFlag, workers)
	}
	return nil
}

// ValidateCrawlFlags 验证 crawl 命令参数
func ValidateCrawlFlags(hours int, compare string) error {
	if hours < 0 || hours > maxWindowHours {
		return fmt.Errorf("时间窗口必须在0-%d小时之间,当前值: %d", maxWindowHours, hours)
	}
	if compare != "" {
		if err := ValidateInputFile(compare); err != nil {
			return fmt.Errorf("对比文件: %w", err)
		}
	}
	return nil
}
