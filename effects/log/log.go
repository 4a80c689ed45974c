package log

import (
	"context"
	"fmt"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

const (
	KindLog     effects.Kind = "Logging/Log"
	KindMessage effects.Kind = "Logging/Message"
)

// Log records one reducer step: the state before, the action and the state after.
type Log struct {
	effects.Silent
	Prev   any
	Action effects.Action
	Next   any
	At     effects.TimeSpan
}

func (Log) Kind() effects.Kind { return KindLog }

// Message is a free-form structured log line emitted by a reducer.
type Message struct {
	effects.Silent
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

func (Message) Kind() effects.Kind { return KindMessage }

// WithLogging wraps reducer so that every successful step also emits a Log
// effect after the reducer's own effects.
func WithLogging[S any](reducer effects.Reducer[S]) effects.Reducer[S] {
	return func(prev S, action effects.Action) (effects.Loop[S], error) {
		loop, err := reducer(prev, action)
		if err != nil {
			return loop, err
		}
		return effects.Loop[S]{
			State: loop.State,
			Effect: effects.BatchOf(loop.Effect, Log{
				Prev:   prev,
				Action: action,
				Next:   loop.State,
				At:     effects.Now(),
			}),
		}, nil
	}
}

// Epic writes Log and Message effects to logger. Log effects are written at level.
// A nil logger discards them.
func Epic(logger *zap.Logger, level LogLevel) effects.Epic {
	if logger == nil {
		logger = zap.NewNop()
	}
	steps := effects.Tap(func(_ context.Context, l Log) {
		write(logger, level, "reduced action",
			zap.String("actionType", fmt.Sprintf("%T", l.Action)),
			zap.Any("action", l.Action),
			zap.Any("prevState", l.Prev),
			zap.Any("nextState", l.Next),
			zap.Time("at", l.At.Start()),
		)
	})
	messages := effects.Tap(func(_ context.Context, m Message) {
		fields := make([]zap.Field, 0, len(m.Fields))
		for k, v := range m.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		write(logger, m.Level, m.Message, fields...)
	})
	return effects.CombineEpics(steps, messages)
}

// Enhance adds the logging epic next to epic.
func Enhance(epic effects.Epic, logger *zap.Logger, level LogLevel) effects.Epic {
	return effects.CombineEpics(epic, Epic(logger, level))
}

func write(logger *zap.Logger, level LogLevel, msg string, fields ...zap.Field) {
	switch level {
	case LogInfo:
		logger.Info(msg, fields...)
	case LogWarn:
		logger.Warn(msg, fields...)
	case LogError:
		logger.Error(msg, fields...)
	case LogDebug:
		logger.Debug(msg, fields...)
	default:
		logger.Info(msg, fields...)
	}
}
