package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// newTestServer answers every request with status and body and records what
// it received.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		got = append(got, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

const structureJSON = `{
	"monetizados": {
		"total": 1,
		"subnichos": {
			"historia": {
				"nome": "historia",
				"total": 1,
				"canais": [{
					"id": 12, "nome": "Canal A", "subnicho": "historia", "lingua": "english",
					"url_canal": "https://youtube.com/@a", "kanban_status": "em_crescimento",
					"status_label": "Em Crescimento", "status_color": "green", "status_emoji": "🟢",
					"status_since": "2026-02-01T10:00:00", "dias_no_status": 3, "total_notas": 2
				}]
			}
		}
	},
	"nao_monetizados": {
		"total": 2,
		"subnichos": {
			"terror": {"total": 1, "canais": [{"id": 30, "nome": "Canal C", "kanban_status": null}]},
			"contos": {"total": 1, "canais": [{"id": 31, "nome": "Canal D", "kanban_status": "em_teste_inicial"}]}
		}
	}
}`

func TestFetchStructure(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, structureJSON)
	c := NewClient(srv.URL + "/api/kanban")

	s, err := c.FetchStructure(context.Background())
	require.NoError(t, err)

	require.Len(t, *got, 1)
	assert.Equal(t, http.MethodGet, (*got)[0].Method)
	assert.Equal(t, "/api/kanban/structure", (*got)[0].Path)
	assert.Equal(t, "application/json", (*got)[0].Header.Get("Accept"))
	assert.NotEmpty(t, (*got)[0].Header.Get("X-Request-ID"))
	assert.Empty(t, (*got)[0].Header.Get("Authorization"))

	assert.Equal(t, 3, s.Total())
	require.Len(t, s.Monetized.Subgroups, 1)
	a := s.Monetized.Subgroups[0].Entities[0]
	assert.Equal(t, "Canal A", a.Name)
	assert.True(t, a.Monetized)
	assert.Equal(t, model.ColumnGrowing, a.CurrentStatus)
	require.NotNil(t, a.StatusSince)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), *a.StatusSince)

	require.Len(t, s.NotMonetized.Subgroups, 2)
	assert.Equal(t, "contos", s.NotMonetized.Subgroups[0].Name)
	assert.Equal(t, "terror", s.NotMonetized.Subgroups[1].Name)
	noStatus := s.NotMonetized.Subgroups[1].Entities[0]
	assert.Equal(t, "Sem Status", noStatus.StatusLabel)
	assert.Equal(t, "gray", noStatus.StatusColor)
}

const boardJSON = `{
	"canal": {"id": 7, "nome": "Canal B", "subnicho": "historia", "monetizado": true,
		"status_atual": "em_testes_novos", "status_since": "2026-02-01T10:00:00Z", "dias_no_status": 5},
	"colunas": [
		{"id": "em_crescimento", "label": "Em Crescimento", "emoji": "🟢", "descricao": "x", "is_current": false},
		{"id": "em_testes_novos", "label": "Em Testes Novos", "emoji": "🟡", "descricao": "y", "is_current": true},
		{"id": "canal_constante", "label": "Canal Constante", "emoji": "🔵", "descricao": "z", "is_current": false}
	],
	"notas": [
		{"id": 1, "note_text": "a", "note_color": "green", "coluna_id": "canal_constante", "position": 1,
			"created_at": "2026-02-01 10:00:00.123456", "updated_at": null},
		{"id": 2, "canal_id": 7, "note_text": "b", "note_color": "", "column_id": "em_crescimento", "position": 2,
			"created_at": "2026-02-02T10:00:00+00:00", "updated_at": "2026-02-03T10:00:00+00:00"}
	],
	"historico": [
		{"id": 9, "canal_id": 7, "action_type": "status_change", "description": "moved",
			"details": {"from_status": "em_crescimento"}, "performed_at": "2026-02-01T10:00:00Z"}
	]
}`

func TestFetchBoard(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, boardJSON)
	c := NewClient(srv.URL, WithEntitySegment("canal"), WithToken("secret"))

	b, err := c.FetchBoard(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "/canal/7/board", (*got)[0].Path)
	assert.Equal(t, "Bearer secret", (*got)[0].Header.Get("Authorization"))

	assert.Equal(t, "Canal B", b.Entity.Name)
	assert.Equal(t, model.ColumnNewTests, b.Entity.CurrentStatus)
	assert.Equal(t, 2, b.Entity.NoteCount)
	require.Len(t, b.Columns, 3)
	cur, ok := model.CurrentColumn(b.Columns)
	require.True(t, ok)
	assert.Equal(t, model.ColumnNewTests, cur.ID)

	require.Len(t, b.Notes, 2)
	assert.Equal(t, model.ColumnSteady, b.Notes[0].ColumnID)
	assert.Equal(t, int64(7), b.Notes[0].EntityID)
	assert.False(t, b.Notes[0].Edited())
	assert.Equal(t, model.DefaultNoteColor, b.Notes[1].Color)
	assert.True(t, b.Notes[1].Edited())

	require.Len(t, b.History, 1)
	assert.Equal(t, model.ActionStatusChange, b.History[0].ActionType)
	assert.Equal(t, "em_crescimento", b.History[0].Details["from_status"])
}

func TestFetchBoard_FallsBackToStaticColumns(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`{"canal": {"id": 3, "monetizado": false, "status_atual": "demonstrando_tracao"}, "notas": []}`)
	c := NewClient(srv.URL)

	b, err := c.FetchBoard(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, b.Columns, 4)
	cur, ok := model.CurrentColumn(b.Columns)
	require.True(t, ok)
	assert.Equal(t, model.ColumnTraction, cur.ID)
}

func TestMoveStatus(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"success": true}`)
	c := NewClient(srv.URL)

	require.NoError(t, c.MoveStatus(context.Background(), 7, model.ColumnGrowing))
	r := (*got)[0]
	assert.Equal(t, http.MethodPatch, r.Method)
	assert.Equal(t, "/entity/7/move-status", r.Path)
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{"new_status": "em_crescimento"}, r.Body)
}

func TestCreateNote(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK,
		`{"id": 44, "note_text": "hi", "note_color": "blue", "position": 3, "created_at": "2026-02-01T10:00:00Z"}`)
	c := NewClient(srv.URL)

	n, err := c.CreateNote(context.Background(), 7, model.ColumnSteady, "hi", model.NoteBlue)
	require.NoError(t, err)

	r := (*got)[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/entity/7/note", r.Path)
	assert.Equal(t, map[string]any{
		"note_text":  "hi",
		"note_color": "blue",
		"column_id":  "canal_constante",
	}, r.Body)
	assert.Equal(t, int64(44), n.ID)
	assert.Equal(t, int64(7), n.EntityID)
}

func TestUpdateAndDeleteNote(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"id": 44, "note_text": "x", "note_color": "red"}`)
	c := NewClient(srv.URL)

	_, err := c.UpdateNote(context.Background(), 44, "x", model.NoteRed)
	require.NoError(t, err)
	require.NoError(t, c.DeleteNote(context.Background(), 44))

	require.Len(t, *got, 2)
	assert.Equal(t, http.MethodPatch, (*got)[0].Method)
	assert.Equal(t, "/note/44", (*got)[0].Path)
	assert.Equal(t, map[string]any{"note_text": "x", "note_color": "red"}, (*got)[0].Body)
	assert.Equal(t, http.MethodDelete, (*got)[1].Method)
	assert.Equal(t, "/note/44", (*got)[1].Path)
	assert.Nil(t, (*got)[1].Body)
}

func TestReorderNotes(t *testing.T) {
	srv, got := newTestServer(t, http.StatusNoContent, "")
	c := NewClient(srv.URL)

	err := c.ReorderNotes(context.Background(), 7, []model.NotePosition{
		{NoteID: 5, Position: 1},
		{NoteID: 1, Position: 2},
	})
	require.NoError(t, err)

	r := (*got)[0]
	assert.Equal(t, "/entity/7/reorder-notes", r.Path)
	assert.Equal(t, map[string]any{
		"note_positions": []any{
			map[string]any{"note_id": float64(5), "position": float64(1)},
			map[string]any{"note_id": float64(1), "position": float64(2)},
		},
	}, r.Body)
}

func TestFetchHistory_Limit(t *testing.T) {
	tests := []struct {
		limit int
		query string
	}{
		{50, "limit=50"},
		{1, "limit=1"},
		{100, "limit=100"},
		{0, ""},
		{101, ""},
	}
	for _, tt := range tests {
		srv, got := newTestServer(t, http.StatusOK, `[]`)
		c := NewClient(srv.URL)

		entries, err := c.FetchHistory(context.Background(), 7, tt.limit)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, "/entity/7/history", (*got)[0].Path)
		assert.Equal(t, tt.query, (*got)[0].Query, "limit %d", tt.limit)
	}
}

func TestDeleteHistoryEntry(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"success": true}`)
	c := NewClient(srv.URL)

	require.NoError(t, c.DeleteHistoryEntry(context.Background(), 9))
	assert.Equal(t, http.MethodDelete, (*got)[0].Method)
	assert.Equal(t, "/history/9", (*got)[0].Path)
}
