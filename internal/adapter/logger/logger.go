package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New returns a JSON logger writing to stdout. Debug entries are emitted only
// when level is "debug".
func New(service, level string) Logger {
	return NewWithWriter(os.Stdout, service, level)
}

func NewWithWriter(w io.Writer, service, level string) Logger {
	hostname, _ := os.Hostname()

	zl := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return &zeroLogger{zl: zl}
}

// NewNop discards everything.
func NewNop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zeroLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Info(), action, message, requestID, details, nil)
}

func (l *zeroLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Debug(), action, message, requestID, details, nil)
}

func (l *zeroLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(l.zl.Error(), action, message, requestID, details, err)
}

func (l *zeroLogger) log(ev *zerolog.Event, action, message, requestID string, details map[string]interface{}, err error) {
	if ev == nil {
		return
	}

	ev = ev.
		Str("timestamp", time.Now().UTC().Format(time.RFC3339Nano)).
		Str("request_id", requestID).
		Str("action", action)

	if len(details) > 0 {
		ev = ev.Interface("details", details)
	}

	if err != nil {
		ev = ev.Dict("error", zerolog.Dict().
			Str("msg", err.Error()).
			Str("stack", fmt.Sprintf("%+v", err)))
	}

	ev.Msg(message)
}
