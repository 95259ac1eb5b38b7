// logging.go — slog construction for the CLI: colorized console lines or JSON.
// Everything goes to the supplied writer (stderr in practice) so stdout only
// carries results.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	Level   string // debug, info, warn, error; anything else is info
	Format  string // text (default) or json
	NoColor bool
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a level ParseLevel recognizes.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// IsTerminal reports whether w is a terminal. Anything that is not an
// *os.File, such as a buffer or a pipe wrapper, is not.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(newColorHandler(w, level, opts.NoColor))
}

type palette struct {
	dim, debug, info, warn, err *color.Color
}

func newPalette(noColor bool) *palette {
	p := &palette{
		dim:   color.New(color.FgHiBlack),
		debug: color.New(color.FgMagenta),
		info:  color.New(color.FgCyan),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.dim, p.debug, p.info, p.warn, p.err} {
			c.DisableColor()
		}
	}
	return p
}

// colorHandler writes one colorized line per record. Handlers derived with
// WithAttrs/WithGroup share the writer lock.
type colorHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Level
	colors *palette
	attrs  []slog.Attr
	prefix string // dotted group path applied to record attrs
}

func newColorHandler(w io.Writer, level slog.Level, noColor bool) *colorHandler {
	return &colorHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		colors: newPalette(noColor),
	}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(h.colors.dim.Sprint(r.Time.Format("15:04:05") + " "))

	switch {
	case r.Level >= slog.LevelError:
		buf.WriteString(h.colors.err.Sprint("ERR "))
	case r.Level >= slog.LevelWarn:
		buf.WriteString(h.colors.warn.Sprint("WRN "))
	case r.Level >= slog.LevelInfo:
		buf.WriteString(h.colors.info.Sprint("INF "))
	default:
		buf.WriteString(h.colors.debug.Sprint("DBG "))
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *colorHandler) writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix + a.Key + "."
		if a.Key == "" {
			p = prefix
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, p, ga)
		}
		return
	}
	buf.WriteString(h.colors.dim.Sprint(" " + prefix + a.Key + "="))
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && (s == "" || strings.ContainsAny(s, " \t\n\"=")) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		newAttrs = append(newAttrs, a)
	}
	cp := *h
	cp.attrs = newAttrs
	return &cp
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}
