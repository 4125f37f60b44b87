// Package logging provides the slog handler used by the arena binaries.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures a PrettyJSONHandler.
type Options struct {
	Level     slog.Leveler
	AddSource bool
	// Compact writes one JSON object per line instead of indenting it.
	Compact bool
}

// PrettyJSONHandler writes one JSON object per record. Attributes with the
// same key overwrite each other, and groups become nested objects.
// It is built for readable CLI and daemon output, not throughput.
type PrettyJSONHandler struct {
	w    io.Writer
	mu   *sync.Mutex
	opts Options

	// Each With batch keeps the groups that were open when it was added.
	batches []attrBatch
	groups  []string
}

type attrBatch struct {
	groups []string
	attrs  []slog.Attr
}

func NewPrettyJSONHandler(w io.Writer, opts *Options) *PrettyJSONHandler {
	h := &PrettyJSONHandler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

// New returns a logger writing through a PrettyJSONHandler.
func New(w io.Writer, level slog.Level, compact bool) *slog.Logger {
	return slog.New(NewPrettyJSONHandler(w, &Options{Level: level, Compact: compact}))
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return l, nil
}

func (h *PrettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *PrettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	payload := h.payload(r)

	var (
		b   []byte
		err error
	)
	if h.opts.Compact {
		b, err = json.Marshal(payload)
	} else {
		b, err = json.MarshalIndent(payload, "", "  ")
	}
	if err != nil {
		// Fall back to the envelope so the record is not lost.
		when, _ := payload["time"].(string)
		b = []byte("{\"time\":" + strconv.Quote(when) +
			",\"level\":" + strconv.Quote(r.Level.String()) +
			",\"msg\":" + strconv.Quote(r.Message) +
			",\"log_error\":" + strconv.Quote(err.Error()) + "}")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *PrettyJSONHandler) payload(r slog.Record) map[string]any {
	payload := make(map[string]any, 6+r.NumAttrs())

	if !r.Time.IsZero() {
		payload["time"] = r.Time.Format(time.RFC3339Nano)
	}
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message

	if h.opts.AddSource {
		if src := sourceFromPC(r.PC); src != "" {
			payload["source"] = src
		}
	}

	for _, b := range h.batches {
		for _, a := range b.attrs {
			addAttr(payload, b.groups, a)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.groups, a)
		return true
	})
	return payload
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.batches = append(append([]attrBatch(nil), h.batches...), attrBatch{
		groups: h.groups,
		attrs:  append([]slog.Attr(nil), attrs...),
	})
	return &clone
}

func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttr(root map[string]any, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	if v := attr.Value.Resolve(); v.Kind() == slog.KindGroup && len(v.Group()) == 0 {
		return
	}
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	putAttr(dst, attr)
}

func putAttr(dst map[string]any, attr slog.Attr) {
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		members := v.Group()
		if len(members) == 0 {
			return
		}
		// An unnamed group inlines its members.
		target := dst
		if attr.Key != "" {
			target = map[string]any{}
			dst[attr.Key] = target
		}
		for _, ga := range members {
			putAttr(target, ga)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	dst[attr.Key] = valueToAny(v)
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		a := v.Any()
		if err, ok := a.(error); ok {
			return err.Error()
		}
		if s, ok := a.(fmt.Stringer); ok {
			return s.String()
		}
		return a
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
