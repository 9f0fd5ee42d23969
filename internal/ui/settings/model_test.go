package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
)

func baseConfig() model.AppConfig {
	var cfg model.AppConfig
	cfg.API.BaseURL = "http://localhost:8000/api/kanban"
	cfg.API.TimeoutSec = 5
	cfg.Poll.StructureIntervalSec = 30
	cfg.Poll.HistoryIntervalSec = 10
	return cfg
}

// collect runs cmd and returns the non-batch messages it yields, skipping
// spinner ticks.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestSubmitProbesThenSaves(t *testing.T) {
	var probed, savedToken string
	var saved model.AppConfig
	m := New(
		func(ctx context.Context, baseURL, token string) error {
			probed = baseURL
			return nil
		},
		func(cfg model.AppConfig, token string) error {
			saved, savedToken = cfg, token
			return nil
		},
		100, 40,
	)
	m.Start(baseConfig())
	m.f.baseURL = "https://kanban.example.com/api/kanban/"
	m.f.token = " secret "
	m.f.history = "5"

	m, cmd := m.submit()
	assert.Equal(t, ModeValidating, m.mode)

	res, ok := find[probeResultMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, "https://kanban.example.com/api/kanban", probed)

	m, cmd = m.Update(res)
	internal, ok := find[savedInternalMsg](collect(cmd))
	require.True(t, ok)
	m, cmd = m.Update(internal)

	assert.Equal(t, ModeResult, m.mode)
	assert.NoError(t, m.resultErr)
	assert.Equal(t, "secret", savedToken)
	assert.Equal(t, 5, saved.Poll.HistoryIntervalSec)
	assert.Equal(t, 30, saved.Poll.StructureIntervalSec)

	out, ok := find[SavedMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, saved, out.Config)
	assert.Contains(t, m.View(), "Settings saved")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, ok = find[DoneMsg](collect(cmd))
	assert.True(t, ok)
}

func TestFailedProbeDoesNotSave(t *testing.T) {
	saves := 0
	m := New(
		func(ctx context.Context, baseURL, token string) error { return errors.New("connection refused") },
		func(model.AppConfig, string) error { saves++; return nil },
		100, 40,
	)
	m.Start(baseConfig())

	m, cmd := m.submit()
	res, _ := find[probeResultMsg](collect(cmd))
	m, cmd = m.Update(res)

	assert.Nil(t, cmd)
	assert.Equal(t, ModeResult, m.mode)
	assert.Zero(t, saves)
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "connection refused")
}

func TestSaveFailureIsReported(t *testing.T) {
	m := New(nil, func(model.AppConfig, string) error {
		return SaveError(errors.New("read-only file system"))
	}, 100, 40)
	m.Start(baseConfig())

	m, cmd := m.submit()
	internal, ok := find[savedInternalMsg](collect(cmd))
	require.True(t, ok)
	m, _ = m.Update(internal)

	assert.Contains(t, m.View(), "Saving failed")
	assert.Nil(t, SaveError(nil))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("https://host/api"))
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("ftp://host"))
	assert.Error(t, validateURL("http://"))

	assert.NoError(t, validateOptionalURL(""))
	assert.Error(t, validateOptionalURL("nope"))

	assert.NoError(t, validateInterval(" 30 "))
	assert.Error(t, validateInterval("0"))
	assert.Error(t, validateInterval("3601"))
	assert.Error(t, validateInterval("ten"))
}
