package slog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Colors
const (
	Reset      = "\033[0m"
	Red        = "\033[31m"
	Yellow     = "\033[33m"
	Gray       = "\033[90m"
	CyanBold   = "\033[36;1m"
	WhiteBold  = "\033[37;1m"
	RedBold    = "\033[31;1m"
	YellowBold = "\033[33;1m"
)

// Indent used for attribute groups in the dev mode output.
var Indent = "  "

// DevModeHandlerOptions options for the `DevModeHandler`.
type DevModeHandlerOptions struct {
	Level slog.Leveler
}

// DevModeHandler a human-readable, colored slog handler meant for
// local use of the CLI. It is not optimized for throughput.
type DevModeHandler struct {
	opts   *DevModeHandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a `DevModeHandler` at debug level if `devMode` is true,
// or a JSON handler at info level otherwise.
func NewHandler(devMode bool, w io.Writer) slog.Handler {
	if devMode {
		return NewDevModeHandler(w, &DevModeHandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}

// NewDevModeHandler creates a new `DevModeHandler` writing to `w`.
func NewDevModeHandler(w io.Writer, opts *DevModeHandlerOptions) *DevModeHandler {
	if opts == nil {
		opts = &DevModeHandlerOptions{}
	}
	return &DevModeHandler{w: w, opts: opts, mu: &sync.Mutex{}}
}

// Handle writes the record.
func (h *DevModeHandler) Handle(_ context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 512))

	buf.WriteString(levelColor(r.Level))
	buf.WriteByte('[')
	buf.WriteString(r.Level.String())
	buf.WriteString("]")
	buf.WriteString(Reset)
	buf.WriteByte(' ')
	buf.WriteString(r.Time.Format("2006/01/02 15:04:05.000000"))
	if r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf.WriteString(Gray)
		buf.WriteString(" (")
		buf.WriteString(f.File)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(f.Line))
		buf.WriteByte(')')
		buf.WriteString(Reset)
	}
	buf.WriteByte('\n')
	buf.WriteString(messageColor(r.Level))
	buf.WriteString(r.Message)
	buf.WriteString(Reset)
	buf.WriteByte('\n')

	indent := 0
	for _, attr := range h.attrs {
		printAttr(attr, buf, indent)
	}
	for _, group := range h.groups {
		buf.WriteString(strings.Repeat(Indent, indent))
		buf.WriteString(WhiteBold)
		buf.WriteString(group)
		buf.WriteString(":")
		buf.WriteString(Reset)
		buf.WriteByte('\n')
		indent++
	}
	r.Attrs(func(a slog.Attr) bool {
		printAttr(a, buf, indent)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return RedBold
	case level >= slog.LevelWarn:
		return YellowBold
	case level >= slog.LevelInfo:
		return WhiteBold
	default:
		return CyanBold
	}
}

func messageColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return Red
	case level >= slog.LevelWarn:
		return Yellow
	default:
		return ""
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *DevModeHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// WithAttrs returns a new handler whose attributes consist of
// both the receiver's attributes and the arguments.
func (h *DevModeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DevModeHandler{
		opts:   h.opts,
		mu:     h.mu,
		w:      h.w,
		attrs:  append(append(make([]slog.Attr, 0, len(h.attrs)+len(attrs)), h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup returns a new handler with the given group appended to
// the receiver's existing groups.
func (h *DevModeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &DevModeHandler{
		opts:   h.opts,
		mu:     h.mu,
		w:      h.w,
		attrs:  h.attrs,
		groups: append(append(make([]string, 0, len(h.groups)+1), h.groups...), name),
	}
}

func printAttr(attr slog.Attr, buf *bytes.Buffer, indent int) {
	indentString := strings.Repeat(Indent, indent)
	buf.WriteString(indentString)
	buf.WriteString(WhiteBold)
	buf.WriteString(attr.Key)
	buf.WriteString(":")
	buf.WriteString(Reset)

	if attr.Value.Kind() == slog.KindGroup {
		buf.WriteByte('\n')
		for _, a := range attr.Value.Group() {
			printAttr(a, buf, indent+1)
		}
		return
	}

	val := attr.Value.String()
	if strings.Contains(val, "\n") {
		// Multi-line values such as stack traces start on their own line
		buf.WriteByte('\n')
		buf.WriteString(indentString)
		buf.WriteString(strings.ReplaceAll(val, "\n", "\n"+indentString))
	} else {
		buf.WriteByte(' ')
		buf.WriteString(val)
	}
	buf.WriteByte('\n')
}
