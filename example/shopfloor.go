package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/mesboard/internal/mes"
	"github.com/jpalmerr/mesboard/notify"
)

// notifier is the part of the board the shop floor reports to.
type notifier interface {
	Notify(message string, severity notify.Severity, duration time.Duration) notify.Notification
}

// nextTaskAction moves a task one step along start, complete, reset.
var nextTaskAction = map[string]string{
	mes.TaskPending:    "start",
	mes.TaskInProgress: "complete",
	mes.TaskPaused:     "resume",
	mes.TaskCompleted:  "reset",
}

// runShopFloor changes the plant every 5-15 seconds until ctx is done:
// it advances a task, files an inspection or toggles a machine, and
// announces each change on the board.
func runShopFloor(ctx context.Context, plant *mes.Plant, board notifier) {
	batch := 1
	for {
		wait := time.Duration(5+rand.Intn(11)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		switch rand.Intn(3) {
		case 0:
			tasks := plant.Tasks()
			task := tasks[rand.Intn(len(tasks))]
			updated, err := plant.UpdateTask(task.ID, nextTaskAction[task.Status])
			if err != nil {
				slog.Error("task update failed", "task_id", task.ID, "error", err)
				continue
			}
			board.Notify(fmt.Sprintf("%s: %s", updated.Name, updated.Status), notify.Info, 0)

		case 1:
			batch++
			in := mes.NewQualityRecord{
				Product:   "Product A",
				Batch:     fmt.Sprintf("Batch %03d", batch),
				Inspector: "Chen",
				Result:    mes.ResultQualified,
			}
			severity := notify.Success
			if rand.Intn(4) == 0 {
				in.Result = mes.ResultUnqualified
				in.Defects = []string{"surface scratch"}
				severity = notify.Warning
			}
			rec := plant.AddQualityRecord(in)
			board.Notify(fmt.Sprintf("%s inspected: %s", rec.Batch, rec.Result), severity, 0)

		case 2:
			eqs := plant.Equipment()
			eq := eqs[rand.Intn(len(eqs))]
			action := "maintenance"
			if eq.Status == mes.EquipmentMaintenance {
				action = "repair"
			}
			updated, err := plant.UpdateEquipment(eq.ID, action)
			if err != nil {
				slog.Error("equipment update failed", "equipment_id", eq.ID, "error", err)
				continue
			}
			board.Notify(fmt.Sprintf("%s is now %s", updated.Name, updated.Status), notify.Warning, 5*time.Second)
		}
	}
}
