package slog

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"goyave.dev/mailcheck/util/errors"
)

type unwrapper interface {
	Unwrap() []error
}

// Logger an extension of the standard `*slog.Logger` whose `Error()` functions
// take an error instead of a message and print the stack trace of `*errors.Error`.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given non-nil Handler.
func New(h slog.Handler) *Logger {
	return &Logger{slog.New(h)}
}

// With returns a new Logger that includes the given arguments in each output.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// DebugWithSource logs at debug level, using the given program counter as source.
func (l *Logger) DebugWithSource(ctx context.Context, source uintptr, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, source, msg, args...)
}

// WarnWithSource logs at warn level, using the given program counter as source.
func (l *Logger) WarnWithSource(ctx context.Context, source uintptr, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, source, msg, args...)
}

// Error logs the given error at error level. If the error is an `*errors.Error`,
// its stack trace is added as the "trace" attribute and each of its reasons
// is logged separately.
func (l *Logger) Error(err error, args ...any) {
	l.logError(context.Background(), err, args...)
}

// ErrorCtx same as `Error` with a context.
func (l *Logger) ErrorCtx(ctx context.Context, err error, args ...any) {
	l.logError(ctx, err, args...)
}

func (l *Logger) logError(ctx context.Context, err error, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Handler().Enabled(ctx, slog.LevelError) {
		return
	}
	r := l.makeRecord(slog.LevelError, err.Error(), 0, args...)

	switch e := err.(type) {
	case *errors.Error:
		l.handleError(ctx, e, r)
	case unwrapper:
		for _, reason := range e.Unwrap() {
			l.handleReason(ctx, reason, r)
		}
	default:
		_ = l.Handler().Handle(ctx, r)
	}
}

func (l *Logger) log(ctx context.Context, level slog.Level, source uintptr, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Handler().Enabled(ctx, level) {
		return
	}
	_ = l.Handler().Handle(ctx, l.makeRecord(level, msg, source, args...))
}

func (l *Logger) makeRecord(level slog.Level, msg string, pc uintptr, args ...any) slog.Record {
	if pc == 0 {
		var pcs [1]uintptr
		runtime.Callers(4, pcs[:]) // runtime.Callers, makeRecord, log/logError, exported func
		pc = pcs[0]
	}
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.Add(args...)
	return r
}

func (l *Logger) handleError(ctx context.Context, err *errors.Error, record slog.Record) {
	record.AddAttrs(slog.String("trace", err.StackFrames().String()))
	if err.Len() <= 1 {
		_ = l.Handler().Handle(ctx, record)
		return
	}

	for _, r := range err.Unwrap() {
		l.handleReason(ctx, r, record)
	}
}

func (l *Logger) handleReason(ctx context.Context, reason error, record slog.Record) {
	clone := record.Clone()
	clone.Message = reason.Error()
	switch e := reason.(type) {
	case *errors.Error:
		l.handleError(ctx, e, clone)
	case errors.Reason:
		if _, isDevMode := l.Handler().(*DevModeHandler); !isDevMode {
			clone.AddAttrs(slog.Any("reason", e.Value()))
		}
		_ = l.Handler().Handle(ctx, clone)
	default:
		_ = l.Handler().Handle(ctx, clone)
	}
}
