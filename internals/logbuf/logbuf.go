// Package logbuf collects the log lines of one unit of work (an HTTP request)
// and emits them as a single structured record when the work is done.
package logbuf

import (
	"log/slog"
	"sync"
	"time"
)

type Entry struct {
	Level   slog.Level
	Message string
	At      time.Time
	Seq     uint64
	Attrs   []slog.Attr
}

type Logger struct {
	mu    sync.Mutex
	attrs []slog.Attr
	buf   *buffer
}

type buffer struct {
	mu      sync.Mutex
	entries []Entry
	seq     uint64
}

// New returns a root logger. Roots only carry attrs; entries are buffered by
// the children created with With.
func New(attrs ...slog.Attr) *Logger {
	return &Logger{attrs: append([]slog.Attr(nil), attrs...)}
}

// With starts a child with its own buffer, inheriting the current attrs.
func (l *Logger) With(attrs ...slog.Attr) *Logger {
	l.mu.Lock()
	inherited := make([]slog.Attr, 0, len(l.attrs)+len(attrs))
	inherited = append(inherited, l.attrs...)
	l.mu.Unlock()

	buf := l.buf
	if buf == nil {
		buf = &buffer{}
	}
	return &Logger{attrs: append(inherited, attrs...), buf: buf}
}

func (l *Logger) Add(attrs ...slog.Attr) {
	l.mu.Lock()
	l.attrs = append(l.attrs, attrs...)
	l.mu.Unlock()
}

func (l *Logger) Debug(message string, attrs ...slog.Attr) { l.append(slog.LevelDebug, message, attrs) }
func (l *Logger) Info(message string, attrs ...slog.Attr)  { l.append(slog.LevelInfo, message, attrs) }
func (l *Logger) Warn(message string, attrs ...slog.Attr)  { l.append(slog.LevelWarn, message, attrs) }
func (l *Logger) Error(message string, attrs ...slog.Attr) { l.append(slog.LevelError, message, attrs) }

// Flush drains the buffer into one group attr holding the logger attrs and
// an "entries" list, and resets the sequence.
func (l *Logger) Flush() slog.Attr {
	var entries []Entry
	if l.buf != nil {
		l.buf.mu.Lock()
		entries = l.buf.entries
		l.buf.entries = nil
		l.buf.seq = 0
		l.buf.mu.Unlock()
	}

	l.mu.Lock()
	args := make([]any, 0, len(l.attrs)+1)
	for _, attr := range l.attrs {
		args = append(args, attr)
	}
	l.mu.Unlock()

	args = append(args, slog.Any("entries", entriesToPayload(entries)))
	return slog.Group("", args...)
}

// Highest returns the most severe level buffered so far, or info when empty.
func (l *Logger) Highest() slog.Level {
	level := slog.LevelInfo
	if l.buf == nil {
		return level
	}
	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()
	for _, entry := range l.buf.entries {
		if entry.Level > level {
			level = entry.Level
		}
	}
	return level
}

func (l *Logger) append(level slog.Level, message string, attrs []slog.Attr) {
	if l.buf == nil {
		return
	}
	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()
	l.buf.seq++
	l.buf.entries = append(l.buf.entries, Entry{
		Level:   level,
		Message: message,
		At:      time.Now(),
		Seq:     l.buf.seq,
		Attrs:   attrs,
	})
}

func entriesToPayload(entries []Entry) []map[string]any {
	payload := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		item := map[string]any{
			"message": entry.Message,
			"level":   entry.Level.String(),
			"at":      entry.At,
			"seq":     entry.Seq,
		}
		for key, value := range attrsToMap(entry.Attrs) {
			// reserved keys win over entry attrs
			if _, exists := item[key]; !exists {
				item[key] = value
			}
		}
		payload = append(payload, item)
	}
	return payload
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	result := map[string]any{}
	for _, attr := range attrs {
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			group := attrsToMap(value.Group())
			if attr.Key == "" {
				for k, v := range group {
					result[k] = v
				}
				continue
			}
			result[attr.Key] = group
			continue
		}
		if attr.Key != "" {
			result[attr.Key] = value.Any()
		}
	}
	return result
}
