package main

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "schedule",
	Short:         "Shipping schedule organizer",
	Long:          "整理各船司船期：统一口径、推算截关、去重并按船司/目的港/月份分表导出。",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件 (默认为可执行文件同目录下的 config.toml)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
