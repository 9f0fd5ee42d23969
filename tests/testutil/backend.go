package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/nhle/channel-kanban/internal/model"
)

// FakeEntityID is the one channel the fake backend tracks.
const FakeEntityID = 7

// Request is one call received by the fake backend.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// FakeNote is a note held by the fake backend.
type FakeNote struct {
	ID       int64
	Column   model.ColumnID
	Text     string
	Color    model.NoteColor
	Position int
}

// FakeHistory is a history entry held by the fake backend.
type FakeHistory struct {
	ID          int64
	Action      string
	Description string
}

// Backend is an in-memory kanban API with one monetized channel.
type Backend struct {
	URL string

	mu       sync.Mutex
	requests []Request
	status   model.ColumnID
	notes    []FakeNote
	history  []FakeHistory
	nextID   int64
	fail     map[string]int
}

// NewBackend starts a fake backend seeded with two notes and one history
// entry. It is closed when the test completes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		status: model.ColumnNewTests,
		notes: []FakeNote{
			{ID: 1, Column: model.ColumnNewTests, Text: "first", Color: model.NoteYellow, Position: 1},
			{ID: 2, Column: model.ColumnNewTests, Text: "second", Color: model.NoteBlue, Position: 2},
		},
		history: []FakeHistory{{ID: 50, Action: "status_change", Description: "created"}},
		nextID:  100,
		fail:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /structure", b.structure)
	mux.HandleFunc("GET /entity/{id}/board", b.board)
	mux.HandleFunc("PATCH /entity/{id}/move-status", b.moveStatus)
	mux.HandleFunc("POST /entity/{id}/note", b.createNote)
	mux.HandleFunc("PATCH /note/{id}", b.updateNote)
	mux.HandleFunc("DELETE /note/{id}", b.deleteNote)
	mux.HandleFunc("PATCH /entity/{id}/reorder-notes", b.reorder)
	mux.HandleFunc("GET /entity/{id}/history", b.historyList)
	mux.HandleFunc("DELETE /history/{id}", b.deleteHistory)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Method: r.Method, Path: r.URL.Path}
		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))
		if len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}
		b.mu.Lock()
		b.requests = append(b.requests, req)
		code, failing := b.fail[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if failing {
			writeJSON(w, code, map[string]any{"detail": http.StatusText(code)})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	return b
}

// Fail makes requests matching method and path answer with code.
func (b *Backend) Fail(method, path string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[method+" "+path] = code
}

// Requests returns the calls received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many calls matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Status returns the channel's current stage.
func (b *Backend) Status() model.ColumnID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Notes returns the stored notes in position order.
func (b *Backend) Notes() []FakeNote {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]FakeNote(nil), b.notes...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func (b *Backend) entityOr404(w http.ResponseWriter, r *http.Request) bool {
	if pathID(r) != FakeEntityID {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Canal não encontrado"})
		return false
	}
	return true
}

func (b *Backend) noteJSON(n FakeNote) map[string]any {
	return map[string]any{
		"id":         n.ID,
		"canal_id":   FakeEntityID,
		"note_text":  n.Text,
		"note_color": string(n.Color),
		"column_id":  string(n.Column),
		"position":   n.Position,
		"created_at": "2026-02-01T10:00:00Z",
	}
}

func (b *Backend) historyJSON() []map[string]any {
	out := make([]map[string]any, 0, len(b.history))
	for i := len(b.history) - 1; i >= 0; i-- {
		h := b.history[i]
		out = append(out, map[string]any{
			"id":           h.ID,
			"canal_id":     FakeEntityID,
			"action_type":  h.Action,
			"description":  h.Description,
			"performed_at": "2026-02-01T10:00:00Z",
		})
	}
	return out
}

func (b *Backend) log(action, desc string) {
	b.nextID++
	b.history = append(b.history, FakeHistory{ID: b.nextID, Action: action, Description: desc})
}

func (b *Backend) structure(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	label, color := model.StatusLabel(b.status)
	writeJSON(w, http.StatusOK, map[string]any{
		"monetizados": map[string]any{
			"total": 1,
			"subnichos": map[string]any{
				"historia": map[string]any{
					"total": 1,
					"canais": []map[string]any{{
						"id": FakeEntityID, "nome": "Canal Teste", "subnicho": "historia",
						"kanban_status": string(b.status), "status_label": label, "status_color": color,
						"total_notas": len(b.notes),
					}},
				},
			},
		},
		"nao_monetizados": map[string]any{
			"total": 1,
			"subnichos": map[string]any{
				"terror": map[string]any{
					"total":  1,
					"canais": []map[string]any{{"id": 30, "nome": "Canal Terror", "subnicho": "terror"}},
				},
			},
		},
	})
}

func (b *Backend) board(w http.ResponseWriter, r *http.Request) {
	if !b.entityOr404(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var cols []map[string]any
	for _, c := range model.ColumnsFor(true, b.status) {
		cols = append(cols, map[string]any{
			"id": string(c.ID), "label": c.Label, "emoji": c.Emoji,
			"descricao": c.Description, "is_current": c.IsCurrent,
		})
	}
	notes := make([]map[string]any, 0, len(b.notes))
	for _, n := range b.notes {
		notes = append(notes, b.noteJSON(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"canal": map[string]any{
			"id": FakeEntityID, "nome": "Canal Teste", "subnicho": "historia",
			"monetizado": true, "status_atual": string(b.status), "dias_no_status": 5,
		},
		"colunas":   cols,
		"notas":     notes,
		"historico": b.historyJSON(),
	})
}

func (b *Backend) moveStatus(w http.ResponseWriter, r *http.Request) {
	if !b.entityOr404(w, r) {
		return
	}
	var req struct {
		NewStatus string `json:"new_status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = model.ColumnID(req.NewStatus)
	b.log("status_change", "moved to "+req.NewStatus)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) createNote(w http.ResponseWriter, r *http.Request) {
	if !b.entityOr404(w, r) {
		return
	}
	var req struct {
		NoteText  string `json:"note_text"`
		NoteColor string `json:"note_color"`
		ColumnID  string `json:"column_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	n := FakeNote{
		ID:       b.nextID,
		Column:   model.ColumnID(req.ColumnID),
		Text:     req.NoteText,
		Color:    model.NoteColor(req.NoteColor),
		Position: len(b.notes) + 1,
	}
	b.notes = append(b.notes, n)
	b.log("note_added", req.NoteText)
	writeJSON(w, http.StatusOK, b.noteJSON(n))
}

func (b *Backend) updateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NoteText  string `json:"note_text"`
		NoteColor string `json:"note_color"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	for i := range b.notes {
		if b.notes[i].ID == id {
			b.notes[i].Text = req.NoteText
			b.notes[i].Color = model.NoteColor(req.NoteColor)
			b.log("note_edited", req.NoteText)
			writeJSON(w, http.StatusOK, b.noteJSON(b.notes[i]))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Nota não encontrada"})
}

func (b *Backend) deleteNote(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	for i := range b.notes {
		if b.notes[i].ID == id {
			b.notes = append(b.notes[:i], b.notes[i+1:]...)
			b.log("note_deleted", "")
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Nota não encontrada"})
}

func (b *Backend) reorder(w http.ResponseWriter, r *http.Request) {
	if !b.entityOr404(w, r) {
		return
	}
	var req struct {
		NotePositions []struct {
			NoteID   int64 `json:"note_id"`
			Position int   `json:"position"`
		} `json:"note_positions"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	byID := make(map[int64]FakeNote, len(b.notes))
	for _, n := range b.notes {
		byID[n.ID] = n
	}
	out := make([]FakeNote, 0, len(b.notes))
	for _, p := range req.NotePositions {
		n := byID[p.NoteID]
		n.Position = p.Position
		out = append(out, n)
	}
	b.notes = out
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) historyList(w http.ResponseWriter, r *http.Request) {
	if !b.entityOr404(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.historyJSON()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(out) {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) deleteHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := pathID(r)
	for i := range b.history {
		if b.history[i].ID == id {
			b.history = append(b.history[:i], b.history[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
}
