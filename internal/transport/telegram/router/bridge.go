package router

import (
	"chessbot/internal/config"
	"chessbot/internal/plugin/ops"
	"chessbot/internal/runtime/supervisor"
	"chessbot/internal/task/scheduler"
)

// ---- Config ----

type Config = config.Config

type ConfigManager = config.ConfigManager

// ---- Runtime ----

type Supervisor = supervisor.Supervisor

var NewSupervisor = supervisor.NewSupervisor

var WithLogger = supervisor.WithLogger

var WithCancelOnError = supervisor.WithCancelOnError

// ---- Restart helpers (for resilient worker loops) ----

type RestartOption = supervisor.RestartOption

var WithRestartBackoff = supervisor.WithRestartBackoff

var WithMaxRestarts = supervisor.WithMaxRestarts

var WithFatalOnFinalError = supervisor.WithFatalOnFinalError

var WithPublishFirstError = supervisor.WithPublishFirstError

var WithStopOnCleanExit = supervisor.WithStopOnCleanExit

// ---- Scheduler operational types ----

type Snapshot = scheduler.Snapshot

type ScheduleInfo = scheduler.ScheduleInfo

// ---- Plugin operational types (no import cycle) ----

type PluginsSnapshot = ops.PluginsSnapshot

type PluginStatus = ops.PluginStatus

type PluginHealthResult = ops.PluginHealthResult

// ---- Schedule parsing (shared between router & plugins) ----

type ScheduleKind = scheduler.SpecKind

type ParsedSchedule = scheduler.ParsedSpec

const (
	ScheduleCron     = scheduler.SpecCron
	ScheduleInterval = scheduler.SpecInterval
)

func ParseSchedule(raw string) (ParsedSchedule, error) {
	return scheduler.ParseSchedule(raw)
}
