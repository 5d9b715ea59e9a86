// Package notify keeps the short history of transient messages shown to the
// user and logs each of them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quakeph/quakemap/internal/queue"
)

// DefaultLimit is the number of notices kept when none is configured.
const DefaultLimit = 20

// Level is the severity of a notice.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Notice is one message.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Sink displays notices as they are raised.
type Sink interface {
	Notify(n Notice)
}

// Notices is a bounded notice history. It is safe for concurrent use.
type Notices struct {
	history *queue.Queue[Notice]
	sink    Sink
	log     *slog.Logger
	now     func() time.Time
}

// New creates a history holding at most limit notices. sink may be nil.
func New(limit int, sink Sink, log *slog.Logger) *Notices {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notices{
		history: queue.NewBounded[Notice](limit),
		sink:    sink,
		log:     log,
		now:     time.Now,
	}
}

func (n *Notices) Info(msg string)  { n.raise(Info, msg) }
func (n *Notices) Warn(msg string)  { n.raise(Warn, msg) }
func (n *Notices) Error(msg string) { n.raise(Error, msg) }

// Errorf raises an error notice built from format and err.
func (n *Notices) Errorf(format string, args ...any) {
	n.raise(Error, fmt.Sprintf(format, args...))
}

func (n *Notices) raise(level Level, msg string) {
	notice := Notice{Level: level, Message: msg, At: n.now()}
	n.history.Push(notice)
	n.log.Log(context.Background(), level.slog(), "Notice", "level", level.String(), "message", msg)
	if n.sink != nil {
		n.sink.Notify(notice)
	}
}

// History returns the kept notices, oldest first.
func (n *Notices) History() []Notice {
	return n.history.Snapshot()
}

// Last returns the newest notice.
func (n *Notices) Last() (Notice, bool) {
	h := n.history.Snapshot()
	if len(h) == 0 {
		return Notice{}, false
	}
	return h[len(h)-1], true
}

// Clear drops the history.
func (n *Notices) Clear() {
	n.history.Clear()
}
