package mes

import (
	"fmt"
	"sync"

	"github.com/jpalmerr/mesboard/clock"
)

// Plant holds the demo MES data. It is safe for concurrent use.
//
// Getters return deep copies; callers may modify them freely.
type Plant struct {
	clock clock.Clock

	mu         sync.RWMutex
	tasks      []Task
	records    []QualityRecord
	equipment  []Equipment
	nextRecord int
}

// NewPlant returns a plant seeded with two pending tasks, one qualified
// inspection and two pieces of equipment.
func NewPlant(c clock.Clock) *Plant {
	if c == nil {
		c = clock.Real()
	}
	return &Plant{
		clock: c,
		tasks: []Task{
			{ID: 1, Name: "Product A assembly", Stage: "assembly", Status: TaskPending},
			{ID: 2, Name: "Product B testing", Stage: "testing", Status: TaskPending},
		},
		records: []QualityRecord{
			{
				ID:        1,
				Product:   "Product A",
				Batch:     "Batch 001",
				Inspector: "Chen",
				CheckTime: "2024-01-15 10:30",
				Result:    ResultQualified,
				Defects:   []string{},
			},
		},
		equipment: []Equipment{
			{
				ID:                 1,
				Name:               "Line A",
				Type:               "assembly line",
				Status:             EquipmentRunning,
				LastMaintenance:    "2024-01-10",
				NextMaintenance:    "2024-02-10",
				MaintenanceRecords: []MaintenanceRecord{},
			},
			{
				ID:                 2,
				Name:               "Tester B",
				Type:               "test instrument",
				Status:             EquipmentStandby,
				LastMaintenance:    "2024-01-12",
				NextMaintenance:    "2024-02-12",
				MaintenanceRecords: []MaintenanceRecord{},
			},
		},
		nextRecord: 2,
	}
}

// Tasks returns all production tasks.
func (p *Plant) Tasks() []Task {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Task, len(p.tasks))
	for i, t := range p.tasks {
		out[i] = copyTask(t)
	}
	return out
}

// UpdateTask applies action to task id: start, pause, resume, complete or
// reset. It returns the updated task.
func (p *Plant) UpdateTask(id int, action string) (Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task := p.findTaskLocked(id)
	if task == nil {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	now := p.clock.Now().Format(taskTimeLayout)
	switch action {
	case "start":
		task.Status = TaskInProgress
		task.StartTime = &now
		task.Progress = 10
	case "pause":
		task.Status = TaskPaused
	case "resume":
		task.Status = TaskInProgress
	case "complete":
		task.Status = TaskCompleted
		task.EndTime = &now
		task.Progress = 100
	case "reset":
		task.Status = TaskPending
		task.StartTime = nil
		task.EndTime = nil
		task.Progress = 0
	default:
		return Task{}, fmt.Errorf("task action %q: %w", action, ErrUnknownAction)
	}
	return copyTask(*task), nil
}

// QualityRecords returns all inspections in the order they were added.
func (p *Plant) QualityRecords() []QualityRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]QualityRecord, len(p.records))
	for i, r := range p.records {
		out[i] = copyRecord(r)
	}
	return out
}

// AddQualityRecord stores an inspection with the next ID and the current
// time.
func (p *Plant) AddQualityRecord(in NewQualityRecord) QualityRecord {
	defects := append([]string{}, in.Defects...)

	p.mu.Lock()
	defer p.mu.Unlock()

	rec := QualityRecord{
		ID:        p.nextRecord,
		Product:   in.Product,
		Batch:     in.Batch,
		Inspector: in.Inspector,
		CheckTime: p.clock.Now().Format(checkTimeLayout),
		Result:    in.Result,
		Defects:   defects,
	}
	p.nextRecord++
	p.records = append(p.records, rec)
	return copyRecord(rec)
}

// Equipment returns all equipment.
func (p *Plant) Equipment() []Equipment {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Equipment, len(p.equipment))
	for i, e := range p.equipment {
		out[i] = copyEquipment(e)
	}
	return out
}

// UpdateEquipment applies action to equipment id: maintenance, repair or
// standby. Maintenance also stamps the date and logs a routine visit.
func (p *Plant) UpdateEquipment(id int, action string) (Equipment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var eq *Equipment
	for i := range p.equipment {
		if p.equipment[i].ID == id {
			eq = &p.equipment[i]
			break
		}
	}
	if eq == nil {
		return Equipment{}, fmt.Errorf("equipment %d: %w", id, ErrNotFound)
	}

	switch action {
	case "maintenance":
		today := p.clock.Now().Format(maintenanceLayout)
		eq.Status = EquipmentMaintenance
		eq.LastMaintenance = today
		eq.MaintenanceRecords = append(eq.MaintenanceRecords, MaintenanceRecord{
			Date:        today,
			Type:        "scheduled",
			Description: "routine maintenance",
			Technician:  "Li",
		})
	case "repair":
		eq.Status = EquipmentRunning
	case "standby":
		eq.Status = EquipmentStandby
	default:
		return Equipment{}, fmt.Errorf("equipment action %q: %w", action, ErrUnknownAction)
	}
	return copyEquipment(*eq), nil
}

// ProductionStats counts tasks by status. CompletionRate is a percentage.
func (p *Plant) ProductionStats() ProductionStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := ProductionStats{Total: len(p.tasks)}
	for _, t := range p.tasks {
		switch t.Status {
		case TaskCompleted:
			s.Completed++
		case TaskInProgress:
			s.InProgress++
		case TaskPaused:
			s.Paused++
		case TaskPending:
			s.Pending++
		}
	}
	s.CompletionRate = percent(s.Completed, s.Total)
	return s
}

// QualityStats counts inspections by result. Anything other than
// qualified counts as unqualified.
func (p *Plant) QualityStats() QualityStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := QualityStats{Total: len(p.records)}
	for _, r := range p.records {
		if r.Result == ResultQualified {
			s.Qualified++
		}
	}
	s.Unqualified = s.Total - s.Qualified
	s.QualificationRate = percent(s.Qualified, s.Total)
	return s
}

// EquipmentStats counts equipment by status.
func (p *Plant) EquipmentStats() EquipmentStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := EquipmentStats{Total: len(p.equipment)}
	for _, e := range p.equipment {
		switch e.Status {
		case EquipmentRunning:
			s.Running++
		case EquipmentMaintenance:
			s.Maintenance++
		case EquipmentStandby:
			s.Standby++
		}
	}
	return s
}

// DashboardStats combines all three summaries.
func (p *Plant) DashboardStats() DashboardStats {
	return DashboardStats{
		Production: p.ProductionStats(),
		Quality:    p.QualityStats(),
		Equipment:  p.EquipmentStats(),
	}
}

func (p *Plant) findTaskLocked(id int) *Task {
	for i := range p.tasks {
		if p.tasks[i].ID == id {
			return &p.tasks[i]
		}
	}
	return nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func copyTask(t Task) Task {
	if t.StartTime != nil {
		s := *t.StartTime
		t.StartTime = &s
	}
	if t.EndTime != nil {
		s := *t.EndTime
		t.EndTime = &s
	}
	return t
}

func copyRecord(r QualityRecord) QualityRecord {
	r.Defects = append([]string{}, r.Defects...)
	return r
}

func copyEquipment(e Equipment) Equipment {
	e.MaintenanceRecords = append([]MaintenanceRecord{}, e.MaintenanceRecords...)
	return e
}
