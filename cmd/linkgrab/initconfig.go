package main

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/RecoveryAshes/linkgrab/internal/config"
	"github.com/RecoveryAshes/linkgrab/internal/core"
	"github.com/RecoveryAshes/linkgrab/internal/utils"
	"github.com/spf13/cobra"
)

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "生成默认配置文件",
		Long:  "将内置配置模板写入 path (默认 " + config.DefaultConfigFile + ")",
		Args:  cobra.MaximumNArgs(1),
		// 配置文件可能尚不存在或无效, 不加载配置
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成配置文件: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}

func newValidateConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "验证配置文件和HTTP头部",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app

			headerManager, err := core.NewHeaderManager(a.config.HTTP.Headers, root.headers, a.logger)
			if err != nil {
				return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			source := a.config.ConfigFile
			if source == "" {
				source = "(默认值)"
			}
			a.logger.Info().Str("config", source).Msg("配置验证通过")

			// 显示合并后的头部(脱敏)
			rows := safeHeaderRows(headerManager.GetSafeHeaders())
			reporter := utils.NewReporter(a.stdout, "", a.config.Output.Format, a.logger)
			return reporter.Write([]string{"Header", "Value"}, rows)
		},
	}
}

// safeHeaderRows 按名称排序的头部行
func safeHeaderRows(headers map[string]string) [][]string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{http.CanonicalHeaderKey(name), headers[name]}
	}
	return rows
}
