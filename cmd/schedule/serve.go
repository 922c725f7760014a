package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/config"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/logger"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/server"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/util"
)

var serveFlags struct {
	port    int
	devMode bool
	dataDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web service",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	serveCmd.Flags().BoolVar(&serveFlags.devMode, "dev", false, "开发模式")
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, info, err := config.LoadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 命令行参数覆盖配置
	if serveFlags.port > 0 && !info.PortSpecified {
		cfg.Server.Port = serveFlags.port
	}
	if serveFlags.devMode {
		cfg.Server.DevMode = true
	}
	if serveFlags.dataDir != "" {
		cfg.Data.DataDir = serveFlags.dataDir
	}

	logger.SetLevel(cfg.Log.Level)
	log := logger.New("server")

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	log.Infof("data dir: %s", dataDir)

	st, err := store.New(filepath.Join(dataDir, store.DefaultFileName))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("store close: %v", err)
		}
	}()

	if seeded, err := st.SeedRules(cfg.Rules.Seed); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	} else if seeded {
		log.Infof("seeded %d service cutoff rules", len(cfg.Rules.Seed))
	}

	srv := server.NewServer(cfg, st, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	url := util.LocalURL(cfg.Server.Port)
	if cfg.Server.OpenBrowser && !cfg.Server.DevMode {
		if err := util.OpenBrowser(url); err != nil {
			log.Warnf("无法自动打开浏览器，请手动访问: %s", url)
		}
	} else {
		log.Infof("请访问 %s", url)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
