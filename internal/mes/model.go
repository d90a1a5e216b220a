// Package mes is an in-memory demo manufacturing execution system. It keeps
// production tasks, quality inspections and equipment, and serves them
// together with the aggregate statistics the dashboard polls.
package mes

import "errors"

var (
	// ErrNotFound is returned when no task or equipment has the given ID.
	ErrNotFound = errors.New("not found")

	// ErrUnknownAction is returned for an action the record does not support.
	ErrUnknownAction = errors.New("unknown action")
)

// Production task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskPaused     = "paused"
	TaskCompleted  = "completed"
)

// Inspection results.
const (
	ResultQualified   = "qualified"
	ResultUnqualified = "unqualified"
)

// Equipment statuses.
const (
	EquipmentRunning     = "running"
	EquipmentMaintenance = "maintenance"
	EquipmentStandby     = "standby"
)

// Timestamp layouts used in records.
const (
	taskTimeLayout    = "2006-01-02 15:04:05"
	checkTimeLayout   = "2006-01-02 15:04"
	maintenanceLayout = "2006-01-02"
)

// Task is a production task moving through the shop floor.
type Task struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Stage     string  `json:"stage"`
	Status    string  `json:"status"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Progress  int     `json:"progress"`
}

// QualityRecord is the outcome of one batch inspection.
type QualityRecord struct {
	ID        int      `json:"id"`
	Product   string   `json:"product"`
	Batch     string   `json:"batch"`
	Inspector string   `json:"inspector"`
	CheckTime string   `json:"check_time"`
	Result    string   `json:"result"`
	Defects   []string `json:"defects"`
}

// NewQualityRecord holds the submitted fields of an inspection.
type NewQualityRecord struct {
	Product   string
	Batch     string
	Inspector string
	Result    string
	Defects   []string
}

// MaintenanceRecord logs one maintenance visit.
type MaintenanceRecord struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Technician  string `json:"technician"`
}

// Equipment is a production line or instrument.
type Equipment struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"name"`
	Type               string              `json:"type"`
	Status             string              `json:"status"`
	LastMaintenance    string              `json:"last_maintenance"`
	NextMaintenance    string              `json:"next_maintenance"`
	MaintenanceRecords []MaintenanceRecord `json:"maintenance_records"`
}

// ProductionStats summarises production tasks.
type ProductionStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	Paused         int     `json:"paused"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// QualityStats summarises inspections.
type QualityStats struct {
	Total             int     `json:"total"`
	Qualified         int     `json:"qualified"`
	Unqualified       int     `json:"unqualified"`
	QualificationRate float64 `json:"qualification_rate"`
}

// EquipmentStats summarises equipment by status.
type EquipmentStats struct {
	Total       int `json:"total"`
	Running     int `json:"running"`
	Maintenance int `json:"maintenance"`
	Standby     int `json:"standby"`
}

// DashboardStats is everything the overview page shows.
type DashboardStats struct {
	Production ProductionStats `json:"production"`
	Quality    QualityStats    `json:"quality"`
	Equipment  EquipmentStats  `json:"equipment"`
}
