package ui

import (
	"fmt"
	"io"
	"sync"
)

type NoticeDuration int

const (
	Short NoticeDuration = iota
	Long
)

func (d NoticeDuration) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// Notifier shows a short-lived message to the user.
type Notifier interface {
	Show(msg string, d NoticeDuration)
}

type ConsoleNotifier struct {
	W io.Writer
}

func (c ConsoleNotifier) Show(msg string, _ NoticeDuration) { fmt.Fprintf(c.W, "* %s\n", msg) }

type Notice struct {
	Message  string
	Duration NoticeDuration
}

type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) Show(msg string, d NoticeDuration) {
	n.mu.Lock()
	n.notices = append(n.notices, Notice{Message: msg, Duration: d})
	n.mu.Unlock()
}

func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
