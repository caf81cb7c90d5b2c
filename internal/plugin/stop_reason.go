package plugin

import "chessbot/internal/runtime/lifecycle"

type StopReason = lifecycle.StopReason

const (
	StopPluginDisable    = lifecycle.StopPluginDisable
	StopPluginQuarantine = lifecycle.StopPluginQuarantine
	StopAppStop          = lifecycle.StopAppStop
	StopConfigReload     = lifecycle.StopConfigReload
)
