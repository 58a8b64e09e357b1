package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubev2v/inventory-report/internal/cli"
	"github.com/kubev2v/inventory-report/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	logger := log.InitLog(log.ParseLevel(os.Getenv("INVENTORY_LOG_LEVEL")))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := NewInventoryReportCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func NewInventoryReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory-report [flags] [options]",
		Short: "inventory-report collects a vSphere inventory into CSV, HTML and XLSX reports.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(cli.NewCmdCollect())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
