package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/mesboard"
	"github.com/jpalmerr/mesboard/clock"
	"github.com/jpalmerr/mesboard/internal/mes"
)

const backendPort = 5000

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// demo backend (see internal/mes)
	plant := mes.NewPlant(clock.Real())
	go func() {
		if err := mes.NewAPI(plant, slog.Default()).ListenAndServe(ctx, backendPort); err != nil {
			slog.Error("mes backend error", "error", err)
			stop()
		}
	}()
	time.Sleep(100 * time.Millisecond)

	base := fmt.Sprintf("http://localhost:%d/api", backendPort)

	production, err := mesboard.NewSource("production", base+"/production-stats",
		mesboard.WithFields(
			mesboard.Field{Element: "total-tasks", Path: "total", Format: mesboard.FormatNumber},
			mesboard.Field{Element: "in-progress", Path: "in_progress"},
			mesboard.Field{Element: "completion-rate", Path: "completion_rate", Format: mesboard.FormatPercent},
		),
	)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	quality, err := mesboard.NewSource("quality", base+"/quality-stats",
		mesboard.WithField("inspections", "total", mesboard.FormatNumber),
		mesboard.WithField("qualification-rate", "qualification_rate", mesboard.FormatPercent),
	)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	equipment, err := mesboard.NewSource("equipment", base+"/equipment-stats",
		mesboard.WithField("running", "running", nil),
		mesboard.WithField("in-maintenance", "maintenance", nil),
		mesboard.WithInterval(10*time.Second),
	)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	board, err := mesboard.New(
		mesboard.WithTitle("Shop Floor Demo"),
		mesboard.WithSources(production, quality, equipment),
		mesboard.WithPollingInterval(3*time.Second),
		mesboard.WithPort(8080),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	go runShopFloor(ctx, plant, board)

	fmt.Println()
	fmt.Println("  MESBoard demo")
	fmt.Println()
	fmt.Println("  Dashboard:   http://localhost:8080")
	fmt.Printf("  MES backend: http://localhost:%d/api/dashboard-stats\n", backendPort)
	fmt.Println()
	fmt.Println("  The shop floor changes every few seconds; each change is announced")
	fmt.Println("  as a notification. Press Ctrl+C to stop.")
	fmt.Println()

	if err := board.Start(ctx); err != nil {
		slog.Error("board error", "error", err)
		os.Exit(1)
	}
}
