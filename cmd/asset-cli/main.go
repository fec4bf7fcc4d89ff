// Package main 资产生成命令行工具
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"asset-forge/internal/config"
	"asset-forge/pkg/logger"
)

// Version 版本信息，构建时注入
var Version = "dev"

type rootOptions struct {
	configDir string
	logLevel  string
	cfg       *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "asset-cli",
		Short:         "Procedural 3D asset generation tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configDir, "config", "", "config directory (defaults are used when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level")

	cmd.AddCommand(
		newGenerateCommand(opts),
		newPromptCommand(opts),
		newValidateCommand(opts),
		newExperimentsCommand(opts),
	)
	return cmd
}

func (o *rootOptions) load() error {
	if o.configDir == "" {
		o.cfg = config.Default()
	} else {
		cfg, err := config.LoadFrom(o.configDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	}
	level := o.cfg.Observability.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger.InitWithWriter(os.Stderr, level, o.cfg.Observability.Logging.Format)
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
