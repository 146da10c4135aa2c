package model

import "time"

// TaskKind identifies which workflow a task belongs to.
type TaskKind string

const (
	TaskKindExport     TaskKind = "export"
	TaskKindVisibility TaskKind = "visibility"
)

// TaskStatus is the lifecycle state of a task. The values match the states
// the operator tooling has always displayed.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pendiente"
	TaskStatusProcessing TaskStatus = "procesando"
	TaskStatusComplete   TaskStatus = "completado"
	TaskStatusError      TaskStatus = "error"
)

// LogLine is one timestamped entry in a task's append-only log.
type LogLine struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Task tracks one export or visibility run: state transitions, incremental
// progress counters and an append-only log. Progress counters are written in
// batches by the pipeline; ProgressCurrent only ever increases within a phase.
type Task struct {
	ID              string     `json:"id"`
	Kind            TaskKind   `json:"kind"`
	Account         string     `json:"account"`
	Status          TaskStatus `json:"status"`
	ProgressTotal   int        `json:"progress_total"`
	ProgressCurrent int        `json:"progress_current"`
	Log             []LogLine  `json:"log,omitempty"`
	ResultFile      string     `json:"result_file,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
