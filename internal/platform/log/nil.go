package log

// NoneLogger discards everything. It is the default when no logger has
// been installed in a context, e.g. in unit tests that don't care about
// log output.
type NoneLogger struct{}

func (l *NoneLogger) Info(args ...any)                    {}
func (l *NoneLogger) Infof(format string, args ...any)    {}
func (l *NoneLogger) Error(args ...any)                   {}
func (l *NoneLogger) Errorf(format string, args ...any)   {}
func (l *NoneLogger) Warn(args ...any)                    {}
func (l *NoneLogger) Warnf(format string, args ...any)    {}
func (l *NoneLogger) Debug(args ...any)                   {}
func (l *NoneLogger) Debugf(format string, args ...any)   {}
func (l *NoneLogger) Sync() error                         { return nil }

func (l *NoneLogger) WithFields(fields ...any) Logger { return l }
