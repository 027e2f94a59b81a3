package logger

import "github.com/robfig/cron/v3"

type cronLogger struct{}

// CronLogger adapts the global logger to cron.Logger. Cron's chatty
// scheduling messages go to debug.
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
