package notify

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// TerminalSink prints messages to a terminal, green for success and red for
// errors.
type TerminalSink struct {
	w       io.Writer
	success *color.Color
	failure *color.Color
	info    *color.Color
}

func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{
		w:       w,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgCyan),
	}
}

func (s *TerminalSink) Show(msg Message) {
	c := s.info
	mark := "•"

	switch msg.Kind {
	case KindSuccess:
		c, mark = s.success, "✓"
	case KindError:
		c, mark = s.failure, "✗"
	}

	fmt.Fprintln(s.w, c.Sprintf("%s %s", mark, msg.Text))
}
