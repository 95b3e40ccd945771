// Package notify shows one transient message at a time and dismisses it
// after a fixed delay. It backs both the controller status lines and the
// console-wide toast.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

const DefaultDismissAfter = 3 * time.Second

type Message struct {
	Text string    `json:"message"`
	Kind Kind      `json:"type"`
	At   time.Time `json:"-"`
}

// Sink receives every message as it is shown.
type Sink interface {
	Show(msg Message)
}

type SinkFunc func(msg Message)

func (f SinkFunc) Show(msg Message) { f(msg) }

type Notifier struct {
	mu      sync.Mutex
	after   time.Duration
	sinks   []Sink
	current *Message
	timer   *time.Timer
	seq     uint64
}

// New returns a notifier that clears each message after the given delay.
// A non-positive delay keeps messages until replaced or cleared.
func New(after time.Duration, sinks ...Sink) *Notifier {
	return &Notifier{
		after: after,
		sinks: sinks,
	}
}

// Show replaces the current message and restarts the dismiss timer.
func (n *Notifier) Show(kind Kind, text string) {
	msg := Message{Text: text, Kind: kind, At: time.Now()}

	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = &msg
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.after > 0 {
		n.timer = time.AfterFunc(n.after, func() { n.dismiss(seq) })
	}
	sinks := n.sinks
	n.mu.Unlock()

	for _, s := range sinks {
		s.Show(msg)
	}
}

func (n *Notifier) Success(text string) { n.Show(KindSuccess, text) }

func (n *Notifier) Error(text string) { n.Show(KindError, text) }

func (n *Notifier) Info(text string) { n.Show(KindInfo, text) }

// Current returns the visible message, if any.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return Message{}, false
	}

	return *n.current, true
}

func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// dismiss clears the message only if nothing newer was shown since.
func (n *Notifier) dismiss(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.seq != seq {
		return
	}
	n.current = nil
	n.timer = nil
}
