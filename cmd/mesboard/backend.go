package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/mesboard/clock"
	"github.com/jpalmerr/mesboard/internal/mes"
	"github.com/spf13/cobra"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the demo MES backend",
	Long: `Run an in-memory manufacturing execution system with production tasks,
quality inspections and equipment. Its /api/*-stats endpoints are the
sources the dashboard polls.

Example:
  mesboard backend --port 5000`,
	RunE: runBackend,
}

func init() {
	rootCmd.AddCommand(backendCmd)

	backendCmd.Flags().IntP("port", "p", 5000, "port to listen on")
}

func runBackend(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	port, _ := cmd.Flags().GetInt("port")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := mes.NewAPI(mes.NewPlant(clock.Real()), logger)
	if err := api.ListenAndServe(ctx, port); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
