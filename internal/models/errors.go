package models

import (
	"errors"
	"fmt"
)

// ErrChannelNotFound 频道查找失败(标识无效或不可访问)
var ErrChannelNotFound = errors.New("频道不存在或无法访问")

// ConfigError 配置文件错误
// 表示配置文件读取或解析失败
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ContractError 程序契约违例
// 聚合时来源中的URL在验证结果里不存在,属于致命错误,不能输出空白数据掩盖
type ContractError struct {
	Source string
	URL    string
}

// Error 实现error接口
func (e *ContractError) Error() string {
	return fmt.Sprintf("契约违例: 来源 [%s] 的URL缺少验证结果: %s", e.Source, e.URL)
}
