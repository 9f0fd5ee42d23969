package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/credential"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/tests/testutil"
)

type harness struct {
	be      *testutil.Backend
	env     Env
	out     *bytes.Buffer
	errb    *bytes.Buffer
	dir     string
	cfgPath string

	answer   bool
	confirms int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		be:   testutil.NewBackend(t),
		out:  &bytes.Buffer{},
		errb: &bytes.Buffer{},
		dir:  t.TempDir(),
	}
	h.cfgPath = filepath.Join(h.dir, "config.yaml")
	cfg := "api:\n  base_url: " + h.be.URL + "\n" +
		"cache:\n  db_path: " + filepath.Join(h.dir, "cache.db") + "\n" +
		"log:\n  path: " + filepath.Join(h.dir, "kanban.log") + "\n"
	require.NoError(t, os.WriteFile(h.cfgPath, []byte(cfg), 0o600))

	h.env = Env{
		In:          strings.NewReader(""),
		Out:         h.out,
		Err:         h.errb,
		Credentials: credential.NewStoreWithKeyring(keyring.NewArrayKeyring(nil)),
		Confirm: func(title, description string) (bool, error) {
			h.confirms++
			return h.answer, nil
		},
		Prompt: func(string) (string, error) { return "prompted-token", nil },
	}
	return h
}

func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.errb.Reset()
	return Run(context.Background(), h.env, append([]string{"--config", h.cfgPath}, args...))
}

func (h *harness) data(t *testing.T, v any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &env), h.out.String())
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestStructureCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("structure"), h.errb.String())
	assert.Contains(t, h.out.String(), "Canal Teste")
	assert.Contains(t, h.out.String(), "Canal Terror")

	require.Equal(t, ExitSuccess, h.run("--json", "structure"))
	var res structureResult
	h.data(t, &res)
	assert.Equal(t, 2, res.Structure.Total())
	assert.False(t, res.Stale)
}

func TestStructureFallsBackToSnapshot(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitSuccess, h.run("structure"))

	require.Equal(t, ExitSuccess, h.run("--json", "--base-url", "http://127.0.0.1:1", "structure"))
	var res structureResult
	h.data(t, &res)
	assert.True(t, res.Stale)
	assert.Equal(t, 2, res.Structure.Total())
}

func TestBoardCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("board", "7"), h.errb.String())
	assert.Contains(t, h.out.String(), "Canal Teste")
	assert.Contains(t, h.out.String(), "first")

	require.Equal(t, ExitSuccess, h.run("--json", "board", "7", "--cached"))
	var res boardResult
	h.data(t, &res)
	assert.True(t, res.Stale)
	assert.NotNil(t, res.CachedAt)
	assert.Len(t, res.Board.Notes, 2)

	offline := h.run("--base-url", "http://127.0.0.1:1", "board", "7")
	require.Equal(t, ExitSuccess, offline)
	assert.Contains(t, h.out.String(), "offline")
}

func TestBoardErrors(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, ExitNotFound, h.run("board", "99"))
	assert.Contains(t, h.errb.String(), "❌ Error:")

	assert.Equal(t, ExitNotFound, h.run("--json", "board", "99"))
	assert.Contains(t, h.out.String(), `"NOT_FOUND"`)

	assert.Equal(t, ExitUsage, h.run("board"))
	assert.Equal(t, ExitUsage, h.run("board", "abc"))
	assert.Equal(t, ExitUsage, h.run("frobnicate"))
	assert.Equal(t, ExitUsage, h.run("board", "7", "--no-such-flag"))
}

func TestMoveCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("move", "7", "Em Crescimento"), h.errb.String())
	assert.Contains(t, h.out.String(), "moved to Em Crescimento")
	assert.Equal(t, model.ColumnGrowing, h.be.Status())

	require.Equal(t, ExitSuccess, h.run("--json", "move", "7", "em_crescimento"))
	var res moveResult
	h.data(t, &res)
	assert.False(t, res.Moved)
	assert.Equal(t, 1, h.be.Count(http.MethodPatch, "/entity/7/move-status"))

	assert.Equal(t, ExitValidation, h.run("move", "7", "demonstrando_tracao"))
	assert.Contains(t, h.errb.String(), "💡 Suggestion:")
}

func TestNoteCommands(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("note", "add", "7", "hello", "world", "--color", "green"), h.errb.String())
	notes := h.be.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, "hello world", notes[2].Text)
	assert.Equal(t, model.NoteGreen, notes[2].Color)
	assert.Equal(t, model.ColumnNewTests, notes[2].Column)

	require.Equal(t, ExitSuccess, h.run("note", "add", "7", "-c", "canal_constante", "steady"))
	assert.Equal(t, model.ColumnSteady, h.be.Notes()[3].Column)

	assert.Equal(t, ExitValidation, h.run("note", "add", "7", "x", "--color", "pink"))
	assert.Equal(t, ExitValidation, h.run("note", "add", "7", "   "))
	assert.Equal(t, ExitUsage, h.run("note", "add", "7"))

	require.Equal(t, ExitSuccess, h.run("note", "edit", "7", "1", "--text", "changed"))
	assert.Equal(t, "changed", h.be.Notes()[0].Text)
	assert.Equal(t, ExitUsage, h.run("note", "edit", "7", "1"))
	assert.Equal(t, ExitNotFound, h.run("note", "edit", "7", "404", "-t", "x"))
	assert.Equal(t, ExitValidation, h.run("note", "edit", "7", "1", "-t", "   "))
	assert.Equal(t, 1, h.be.Count(http.MethodPatch, "/note/1"), "blank edits are rejected locally")
	assert.Equal(t, "changed", h.be.Notes()[0].Text)

	h.answer = false
	require.Equal(t, ExitSuccess, h.run("note", "rm", "7", "1"))
	assert.Equal(t, 1, h.confirms)
	assert.Contains(t, h.errb.String(), "Cancelled")
	assert.Len(t, h.be.Notes(), 4)

	require.Equal(t, ExitSuccess, h.run("note", "rm", "7", "1", "-y"))
	assert.Equal(t, 1, h.confirms, "--yes skips the prompt")
	assert.Len(t, h.be.Notes(), 3)
}

func TestNoteReorderCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("note", "reorder", "7", "2", "1"), h.errb.String())
	notes := h.be.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, int64(2), notes[0].ID)
}

func TestHistoryCommands(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitSuccess, h.run("move", "7", "em_crescimento"))

	require.Equal(t, ExitSuccess, h.run("--json", "history", "7", "-n", "1"), h.errb.String())
	var entries []model.HistoryEntry
	h.data(t, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionStatusChange, entries[0].ActionType)

	assert.Equal(t, ExitUsage, h.run("history", "7", "-n", "500"))

	h.answer = true
	require.Equal(t, ExitSuccess, h.run("history", "rm", "7", "50"))
	assert.Equal(t, 1, h.confirms)
	assert.Equal(t, 1, h.be.Count(http.MethodDelete, "/history/50"))
	assert.Contains(t, h.out.String(), "#50 hidden")
}

func TestTokenCommands(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, ExitSuccess, h.run("token", "set", "abc"))
	tok, err := h.env.Credentials.APIToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.Equal(t, ExitSuccess, h.run("token", "set"))
	tok, _ = h.env.Credentials.APIToken()
	assert.Equal(t, "prompted-token", tok)

	require.Equal(t, ExitSuccess, h.run("token", "clear"))
	tok, _ = h.env.Credentials.APIToken()
	assert.Empty(t, tok)
}

func TestTriggerCommands(t *testing.T) {
	h := newHarness(t)

	var hits int
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(hook.Close)

	videos := filepath.Join(h.dir, "videos.csv")
	header := strings.Repeat("h,", 14) + "h"
	ready := "Title,Desc,,,,,,,,done,,,https://drive/x,,"
	notDone := "Other,Desc,,,,,,,,draft,,,https://drive/y,,"
	require.NoError(t, os.WriteFile(videos, []byte(header+"\n"+ready+"\n"+notDone+"\n"), 0o644))
	config := filepath.Join(h.dir, "config.csv")
	require.NoError(t, os.WriteFile(config,
		[]byte("CHANNEL_ID,UC1\nSUBNICHO,dark\nLINGUA,pt\nNOME_CANAL,Dark PT\n"), 0o644))

	assert.Equal(t, ExitUsage, h.run("trigger", "run", "--sheet", videos, "--channel-config", config))

	require.Equal(t, ExitSuccess, h.run("--json", "trigger", "run",
		"--sheet", videos, "--channel-config", config, "--webhook", hook.URL), h.errb.String())
	var rows []triggerRow
	h.data(t, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, model.DispatchSent, rows[0].Outcome)
	assert.Equal(t, model.DispatchSkipped, rows[1].Outcome)
	assert.Equal(t, 1, hits)

	require.Equal(t, ExitSuccess, h.run("--json", "trigger", "log", "--outcome", "sent"))
	var ds []model.Dispatch
	h.data(t, &ds)
	require.Len(t, ds, 1)
	assert.Equal(t, "videos", ds[0].SpreadsheetID)
	assert.Equal(t, 2, ds[0].Row)
	assert.Equal(t, ExitUsage, h.run("trigger", "log", "--outcome", "lost"))

	require.Equal(t, ExitSuccess, h.run("trigger", "test", "--channel-config", config, "--webhook", hook.URL))
	assert.Contains(t, h.out.String(), "Status: 200")
	assert.Equal(t, 2, hits)
}
