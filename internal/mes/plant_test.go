package mes

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/mesboard/clock"
)

var testStart = time.Date(2024, 3, 1, 9, 15, 30, 0, time.UTC)

func newTestPlant() (*Plant, *clock.Fake) {
	fake := clock.NewFake(testStart)
	return NewPlant(fake), fake
}

func TestNewPlant_Seed(t *testing.T) {
	p, _ := newTestPlant()

	if got := len(p.Tasks()); got != 2 {
		t.Errorf("len(Tasks()) = %d, want 2", got)
	}
	if got := len(p.QualityRecords()); got != 1 {
		t.Errorf("len(QualityRecords()) = %d, want 1", got)
	}
	if got := len(p.Equipment()); got != 2 {
		t.Errorf("len(Equipment()) = %d, want 2", got)
	}
}

func TestUpdateTask_Lifecycle(t *testing.T) {
	p, fake := newTestPlant()

	task, err := p.UpdateTask(1, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.Status != TaskInProgress || task.Progress != 10 {
		t.Errorf("after start = %+v", task)
	}
	if task.StartTime == nil || *task.StartTime != "2024-03-01 09:15:30" {
		t.Errorf("StartTime = %v", task.StartTime)
	}

	if task, _ = p.UpdateTask(1, "pause"); task.Status != TaskPaused {
		t.Errorf("after pause Status = %q", task.Status)
	}
	if task, _ = p.UpdateTask(1, "resume"); task.Status != TaskInProgress {
		t.Errorf("after resume Status = %q", task.Status)
	}

	fake.Advance(time.Hour)
	task, _ = p.UpdateTask(1, "complete")
	if task.Status != TaskCompleted || task.Progress != 100 {
		t.Errorf("after complete = %+v", task)
	}
	if task.EndTime == nil || *task.EndTime != "2024-03-01 10:15:30" {
		t.Errorf("EndTime = %v", task.EndTime)
	}

	task, _ = p.UpdateTask(1, "reset")
	if task.Status != TaskPending || task.Progress != 0 || task.StartTime != nil || task.EndTime != nil {
		t.Errorf("after reset = %+v", task)
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	p, _ := newTestPlant()

	if _, err := p.UpdateTask(99, "start"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}

	if _, err := p.UpdateTask(1, "explode"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action error = %v, want ErrUnknownAction", err)
	}
	if got := p.Tasks()[0]; got.Status != TaskPending {
		t.Errorf("unknown action changed task: %+v", got)
	}
}

func TestAddQualityRecord(t *testing.T) {
	p, _ := newTestPlant()

	rec := p.AddQualityRecord(NewQualityRecord{
		Product:   "Product B",
		Batch:     "Batch 002",
		Inspector: "Wang",
		Result:    ResultUnqualified,
		Defects:   []string{"scratch", "dent"},
	})

	if rec.ID != 2 {
		t.Errorf("ID = %d, want 2", rec.ID)
	}
	if rec.CheckTime != "2024-03-01 09:15" {
		t.Errorf("CheckTime = %q", rec.CheckTime)
	}
	if len(rec.Defects) != 2 {
		t.Errorf("Defects = %v", rec.Defects)
	}

	next := p.AddQualityRecord(NewQualityRecord{Result: ResultQualified})
	if next.ID != 3 {
		t.Errorf("next ID = %d, want 3", next.ID)
	}
	if next.Defects == nil {
		t.Error("Defects should be an empty slice, not nil")
	}
}

func TestUpdateEquipment(t *testing.T) {
	p, _ := newTestPlant()

	eq, err := p.UpdateEquipment(1, "maintenance")
	if err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	if eq.Status != EquipmentMaintenance || eq.LastMaintenance != "2024-03-01" {
		t.Errorf("after maintenance = %+v", eq)
	}
	if len(eq.MaintenanceRecords) != 1 || eq.MaintenanceRecords[0].Date != "2024-03-01" {
		t.Errorf("MaintenanceRecords = %+v", eq.MaintenanceRecords)
	}

	if eq, _ = p.UpdateEquipment(1, "repair"); eq.Status != EquipmentRunning {
		t.Errorf("after repair Status = %q", eq.Status)
	}
	if eq, _ = p.UpdateEquipment(1, "standby"); eq.Status != EquipmentStandby {
		t.Errorf("after standby Status = %q", eq.Status)
	}

	if _, err := p.UpdateEquipment(42, "repair"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
	if _, err := p.UpdateEquipment(1, "scrap"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action error = %v, want ErrUnknownAction", err)
	}
}

func TestStats(t *testing.T) {
	p, _ := newTestPlant()

	_, _ = p.UpdateTask(1, "complete")
	_, _ = p.UpdateTask(2, "start")
	p.AddQualityRecord(NewQualityRecord{Result: ResultUnqualified})
	_, _ = p.UpdateEquipment(2, "maintenance")

	prod := p.ProductionStats()
	want := ProductionStats{Total: 2, Completed: 1, InProgress: 1, CompletionRate: 50}
	if prod != want {
		t.Errorf("ProductionStats() = %+v, want %+v", prod, want)
	}

	quality := p.QualityStats()
	if quality.Total != 2 || quality.Qualified != 1 || quality.Unqualified != 1 || quality.QualificationRate != 50 {
		t.Errorf("QualityStats() = %+v", quality)
	}

	eq := p.EquipmentStats()
	if eq != (EquipmentStats{Total: 2, Running: 1, Maintenance: 1}) {
		t.Errorf("EquipmentStats() = %+v", eq)
	}

	dash := p.DashboardStats()
	if dash.Production != prod || dash.Equipment != eq {
		t.Errorf("DashboardStats() = %+v", dash)
	}
}

func TestStats_EmptyRatesAreZero(t *testing.T) {
	p := &Plant{clock: clock.Real()}

	if rate := p.ProductionStats().CompletionRate; rate != 0 {
		t.Errorf("CompletionRate = %v, want 0", rate)
	}
	if rate := p.QualityStats().QualificationRate; rate != 0 {
		t.Errorf("QualificationRate = %v, want 0", rate)
	}
}

func TestGettersReturnCopies(t *testing.T) {
	p, _ := newTestPlant()
	_, _ = p.UpdateTask(1, "start")
	_, _ = p.UpdateEquipment(1, "maintenance")

	tasks := p.Tasks()
	*tasks[0].StartTime = "tampered"
	tasks[0].Status = "tampered"

	eqs := p.Equipment()
	eqs[0].MaintenanceRecords[0].Technician = "tampered"

	recs := p.QualityRecords()
	recs[0].Defects = append(recs[0].Defects, "tampered")

	if got := p.Tasks()[0]; got.Status != TaskInProgress || *got.StartTime == "tampered" {
		t.Errorf("task mutated through getter: %+v", got)
	}
	if got := p.Equipment()[0].MaintenanceRecords[0].Technician; got == "tampered" {
		t.Error("maintenance record mutated through getter")
	}
	if got := p.QualityRecords()[0].Defects; len(got) != 0 {
		t.Errorf("defects mutated through getter: %v", got)
	}
}

func TestPlant_ConcurrentAccess(t *testing.T) {
	p, _ := newTestPlant()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = p.UpdateTask(1, "start")
			_, _ = p.UpdateTask(1, "pause")
		}()
		go func() {
			defer wg.Done()
			p.AddQualityRecord(NewQualityRecord{Result: ResultQualified})
		}()
		go func() {
			defer wg.Done()
			_ = p.DashboardStats()
			_ = p.Tasks()
		}()
	}
	wg.Wait()

	if got := p.QualityStats().Total; got != 21 {
		t.Errorf("QualityStats().Total = %d, want 21", got)
	}
}
