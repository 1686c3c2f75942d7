package logger

const (
	Main     = "main"
	Radvd    = "radvd"
	Events   = "events"
	Config   = "confmgr"
	Watchdog = "watchdog"
	Manager  = "manager"
	Metrics  = "metrics"
)
