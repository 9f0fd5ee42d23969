package poll

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/api"
)

func recv(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return nil
	}
}

func noResult(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case r := <-p.resultCh:
		t.Fatalf("unexpected result: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitTickers(t *testing.T, fc *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, n))
}

func TestPoller_RunsOnInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := New(WithClock(fc))
	var runs atomic.Int32
	p.Register(Task{
		Name:     "history",
		Interval: 10 * time.Second,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	cmd := p.Start()
	require.NotNil(t, cmd)
	defer p.Stop()
	waitTickers(t, fc, 1)

	fc.Advance(10 * time.Second)
	msg := recv(t, cmd)
	res, ok := msg.(ResultMsg)
	require.True(t, ok)
	assert.Equal(t, "history", res.Task)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(1), runs.Load())

	fc.Advance(10 * time.Second)
	recv(t, p.WaitForNextResult())
	assert.Equal(t, int32(2), runs.Load())

	st := p.Statuses()
	require.Len(t, st, 1)
	assert.Equal(t, TaskIdle, st[0].State)
	assert.False(t, st[0].LastRun.IsZero())
}

func TestPoller_Immediate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := New(WithClock(fc))
	p.Register(Task{
		Name:      "structure",
		Interval:  30 * time.Second,
		Immediate: true,
		Run:       func(ctx context.Context) error { return nil },
	})

	cmd := p.Start()
	defer p.Stop()
	res := recv(t, cmd).(ResultMsg)
	assert.Equal(t, "structure", res.Task)
}

func TestPoller_DisabledTaskSkipsUntilEnabled(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := New(WithClock(fc))
	var runs atomic.Int32
	p.Register(Task{
		Name:     "history",
		Interval: 10 * time.Second,
		Disabled: true,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	p.Start()
	defer p.Stop()
	waitTickers(t, fc, 1)

	fc.Advance(10 * time.Second)
	p.Trigger("history")
	noResult(t, p)
	assert.Equal(t, int32(0), runs.Load())

	p.SetEnabled("history", true)
	p.Trigger("history")
	recv(t, p.WaitForNextResult())
	assert.Equal(t, int32(1), runs.Load())
}

func TestPoller_ReportsErrors(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := New(WithClock(fc))
	p.Register(Task{
		Name:      "structure",
		Interval:  30 * time.Second,
		Immediate: true,
		Run: func(ctx context.Context) error {
			return &api.StatusError{Method: http.MethodGet, Path: "/structure", StatusCode: http.StatusUnauthorized}
		},
	})

	cmd := p.Start()
	defer p.Stop()
	res := recv(t, cmd).(ResultMsg)
	require.Error(t, res.Err)
	assert.True(t, res.AuthError)

	st := p.Statuses()
	assert.Equal(t, TaskError, st[0].State)
	var se *api.StatusError
	assert.True(t, errors.As(st[0].Err, &se))
}

func TestPoller_StopReleasesWaiters(t *testing.T) {
	p := New(WithClock(clockwork.NewFakeClock()))
	p.Register(Task{Name: "x", Interval: time.Second, Run: func(context.Context) error { return nil }})
	cmd := p.Start()
	assert.Nil(t, p.Start(), "second start is a no-op")

	p.Stop()
	assert.Nil(t, recv(t, cmd))
	p.Stop()
}
