package plugin

import (
	"chessbot/internal/config"
	"chessbot/internal/runtime/supervisor"
	"chessbot/internal/transport/telegram/router"
)

// ---- Config ----

type Config = config.Config

type ConfigManager = config.ConfigManager

// PluginConfigRaw is the raw per-plugin config blob inside config.Config.
// It lives in the config package to keep the schema centralized.
type PluginConfigRaw = config.PluginConfigRaw

// ---- Runtime ----

type Supervisor = supervisor.Supervisor

type SupervisorOption = supervisor.SupervisorOption

var NewSupervisor = supervisor.NewSupervisor

var WithLogger = supervisor.WithLogger

var WithCancelOnError = supervisor.WithCancelOnError

// ---- Router API (commands / callbacks / triggers) ----

type Access = router.Access

const (
	AccessEveryone  = router.AccessEveryone
	AccessOwnerOnly = router.AccessOwnerOnly
)

type Command = router.Command

type Request = router.Request

type HandlerFunc = router.HandlerFunc

type CallbackHandlerFunc = router.CallbackHandlerFunc

type CallbackRoute = router.CallbackRoute

type CallbackAccess = router.CallbackAccess

const (
	CallbackAccessOwnerOnly = router.CallbackAccessOwnerOnly
	CallbackAccessEveryone  = router.CallbackAccessEveryone
)

type TriggerRoute = router.TriggerRoute

type Services = router.Services

type CommandManager = router.CommandManager

// ---- Service ports (scheduler/notifier/plugins) ----

type SchedulerPort = router.SchedulerPort

type NotifierPort = router.NotifierPort

type PluginsPort = router.PluginsPort

type Snapshot = router.Snapshot

type ScheduleInfo = router.ScheduleInfo

// ---- Operational snapshots (for status-style commands) ----

type SupervisorRegistry = router.SupervisorRegistry

type SupervisorSnapshot = supervisor.SupervisorSnapshot

type GoroutineStats = supervisor.GoroutineStats
