package lifecycle

// StopReason labels why a component or the whole app is being stopped.
// It is logged and attached to plugin lifecycle events.
type StopReason string

const (
	StopUnknown          StopReason = "unknown"
	StopSIGINT           StopReason = "sigint"
	StopSIGTERM          StopReason = "sigterm"
	StopFatalError       StopReason = "fatal_error"
	StopAppStop          StopReason = "app_stop"
	StopPluginDisable    StopReason = "plugin_disable"
	StopPluginQuarantine StopReason = "plugin_quarantine"
	StopConfigReload     StopReason = "config_reload"
)
