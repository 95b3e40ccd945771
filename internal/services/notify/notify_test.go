package notify_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"tinyrisks_admin/internal/services/notify"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_AutoDismiss(t *testing.T) {
	n := notify.New(20 * time.Millisecond)

	n.Success("Saved")

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Saved", msg.Text)
	assert.Equal(t, notify.KindSuccess, msg.Kind)

	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_NewerMessageSurvivesOldTimer(t *testing.T) {
	n := notify.New(40 * time.Millisecond)

	n.Info("first")
	time.Sleep(25 * time.Millisecond)
	n.Error("second")
	time.Sleep(25 * time.Millisecond)

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)
}

func TestNotifier_NoDelayKeepsMessage(t *testing.T) {
	n := notify.New(0)
	n.Error("stays")

	time.Sleep(10 * time.Millisecond)
	_, ok := n.Current()
	assert.True(t, ok)

	n.Clear()
	_, ok = n.Current()
	assert.False(t, ok)
}

func TestNotifier_Sinks(t *testing.T) {
	var mu sync.Mutex
	var got []notify.Message

	n := notify.New(time.Second, notify.SinkFunc(func(m notify.Message) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
	}))

	n.Success("a")
	n.Error("b")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, notify.KindError, got[1].Kind)
}

func TestTerminalSink(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	sink := notify.NewTerminalSink(&buf)

	sink.Show(notify.Message{Text: "Copied!", Kind: notify.KindSuccess})
	sink.Show(notify.Message{Text: "Failed", Kind: notify.KindError})

	assert.Equal(t, "✓ Copied!\n✗ Failed\n", buf.String())
}
