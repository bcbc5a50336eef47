package logger

import "sync/atomic"

type holder struct{ Logger }

var defLogger atomic.Pointer[holder]

func init() {
	defLogger.Store(&holder{NewSlog(InfoLevel, false)})
}

func def() Logger {
	return defLogger.Load().Logger
}

// SetDefault replaces the package default logger. Components that were constructed
// before the call keep the logger they already hold.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defLogger.Store(&holder{l})
}

// GetLogger returns the package default logger. Sessions and simulators use it unless
// a logger is supplied through their options.
func GetLogger() Logger {
	return def()
}

func Debug(msg string, keysAndValues ...any) {
	def().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	def().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	def().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	def().Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	def().Fatal(msg, keysAndValues...)
}

func SetLevel(level Level) {
	def().SetLevel(level)
}

func With(keyValues ...any) Logger {
	return def().With(keyValues...)
}
