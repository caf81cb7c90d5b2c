package app

import sch "chessbot/internal/task/scheduler"

// Re-export scheduler types for operational commands and plugins.
type Snapshot = sch.Snapshot
type ScheduleInfo = sch.ScheduleInfo

// Schedule parsing helpers (re-exported for plugins).
type ScheduleKind = sch.SpecKind
type ParsedSchedule = sch.ParsedSpec

const (
	ScheduleCron     = sch.SpecCron
	ScheduleInterval = sch.SpecInterval
)

func ParseSchedule(raw string) (ParsedSchedule, error) {
	return sch.ParseSchedule(raw)
}
