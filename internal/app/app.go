package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/nhle/channel-kanban/internal/api"
	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/keys"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/poll"
	"github.com/nhle/channel-kanban/internal/ui"
	"github.com/nhle/channel-kanban/internal/ui/boardview"
	"github.com/nhle/channel-kanban/internal/ui/command"
	"github.com/nhle/channel-kanban/internal/ui/confirm"
	helpview "github.com/nhle/channel-kanban/internal/ui/help"
	"github.com/nhle/channel-kanban/internal/ui/noteform"
	"github.com/nhle/channel-kanban/internal/ui/settings"
	"github.com/nhle/channel-kanban/internal/ui/structure"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewStructure ViewState = iota
	ViewBoard
	ViewHelp
	ViewCommand
	ViewNoteForm
	ViewConfirm
	ViewSettings
)

// Deps are the collaborators of the console.
type Deps struct {
	Config  *model.AppConfig
	Backend board.Backend
	// Cache may be nil.
	Cache board.Cache
	Log   zerolog.Logger
	// Clock drives the refresh schedule; nil means the real clock.
	Clock clockwork.Clock

	// Probe and Save back the settings view.
	Probe settings.ProbeFunc
	Save  settings.SaveFunc
}

// Model is the root Bubble Tea model that manages view routing, layout and
// the open board session.
type Model struct {
	ctx          context.Context
	cfg          model.AppConfig
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	log          zerolog.Logger

	structure *board.Structure
	session   *board.Session
	poller    *poll.Poller

	structureView structure.Model
	boardView     boardview.Model
	noteForm      noteform.Model
	confirmView   confirm.Model
	helpView      helpview.Model
	commandView   command.Model
	settingsView  settings.Model

	ready    bool
	pending  int64
	cachedAt time.Time
	inFlight int
	errMsg   string
}

// New creates the root model. Nothing is fetched until Init.
func New(ctx context.Context, d Deps) Model {
	k := keys.DefaultKeyMap()

	opts := []board.Option{
		board.WithLogger(d.Log),
		board.WithHistoryLimits(d.Config.History.FetchLimit, d.Config.History.VisibleLimit),
	}
	if d.Cache != nil {
		opts = append(opts, board.WithCache(d.Cache))
	}
	st := board.NewStructure(d.Backend, opts...)
	sess := board.NewSession(d.Backend, st, opts...)

	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := poll.New(
		poll.WithClock(clock),
		poll.WithLogger(d.Log),
		poll.WithTimeout(time.Duration(d.Config.API.TimeoutSec)*time.Second),
	)
	registerTasks(p, d.Config.Poll, st, sess)

	return Model{
		ctx:           background(ctx),
		cfg:           *d.Config,
		currentView:   ViewStructure,
		keys:          k,
		log:           d.Log,
		structure:     st,
		session:       sess,
		poller:        p,
		structureView: structure.New(k, 80, 24),
		boardView:     boardview.New(k, 80, 24),
		noteForm:      noteform.New(80, 24),
		confirmView:   confirm.New(80, 24),
		helpView:      helpview.New(k, d.Config.Poll, 80, 24),
		commandView:   command.New(80, 24),
		settingsView:  settings.New(d.Probe, d.Save, 80, 24),
	}
}

// Init shows the cached tree, if any, and starts the refresh schedule.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCachedStructure(),
		m.poller.Start(),
	)
}

// Stop halts background refreshes.
func (m Model) Stop() {
	m.poller.Stop()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.Width, m.layout.ContentHeight()
		m.structureView.SetSize(w, h)
		m.boardView.SetSize(w, h)
		m.noteForm.SetSize(w, h)
		m.confirmView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case poll.ResultMsg:
		m.applyPollResult(msg)
		return m, tea.Batch(m.syncViews(), m.poller.WaitForNextResult())

	case structureLoadedMsg:
		if msg.err != nil {
			m.fail("structure", msg.err)
		}
		return m, m.syncStructure()

	case boardOpenedMsg:
		m.done()
		if msg.entityID != m.pending {
			return m, nil
		}
		if msg.err != nil {
			m.fail("open", msg.err)
			m.leaveBoard()
			return m, m.syncStructure()
		}
		if msg.stale {
			m.cachedAt = msg.cachedAt
			m.errMsg = "backend unreachable, showing the last snapshot"
		}
		m.poller.SetEnabled(taskHistory, true)
		m.syncBoard()
		return m, nil

	case boardChangedMsg:
		m.done()
		if msg.err != nil {
			m.fail(msg.op, msg.err)
		} else {
			m.errMsg = ""
		}
		m.syncBoard()
		return m, nil

	case boardClosedMsg:
		m.done()
		if msg.err != nil {
			m.fail("close", msg.err)
		}
		return m, m.syncStructure()

	case structure.SelectedEntityMsg:
		return m, m.openBoard(msg.EntityID)

	case boardview.BackMsg:
		return m, m.closeBoard()

	case boardview.MoveStatusMsg:
		return m, m.moveStatus(msg.Column)

	case boardview.NewNoteMsg:
		m.previousView = m.currentView
		m.currentView = ViewNoteForm
		return m, m.noteForm.StartCreate(msg.Column)

	case boardview.EditNoteMsg:
		if err := m.session.BeginEdit(msg.Note.ID); err != nil {
			m.fail("edit", err)
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewNoteForm
		return m, m.noteForm.StartEdit(msg.Note)

	case boardview.DeleteNoteMsg:
		m.previousView = m.currentView
		m.currentView = ViewConfirm
		return m, m.confirmView.Ask(
			fmt.Sprintf("Delete note #%d?", msg.Note.ID),
			truncate(msg.Note.Text, 120),
			msg.Note,
		)

	case boardview.ReorderMsg:
		return m, m.reorderNotes(msg.DraggedID, msg.TargetID)

	case boardview.DeleteHistoryMsg:
		m.previousView = m.currentView
		m.currentView = ViewConfirm
		return m, m.confirmView.Ask(
			fmt.Sprintf("Hide history entry #%d?", msg.Entry.ID),
			truncate(msg.Entry.Description, 120),
			msg.Entry,
		)

	case noteform.SubmittedMsg:
		m.currentView = ViewBoard
		if msg.NoteID == 0 {
			return m, m.createNote(msg.Column, msg.Text, msg.Color)
		}
		return m, m.commitEdit(msg.NoteID, msg.Text, msg.Color)

	case noteform.CancelMsg:
		m.currentView = ViewBoard
		if msg.NoteID != 0 {
			_ = m.session.CancelEdit(msg.NoteID)
		}
		return m, nil

	case confirm.ResultMsg:
		m.currentView = m.previousView
		if !msg.Confirmed {
			return m, nil
		}
		switch p := msg.Payload.(type) {
		case model.Note:
			return m, m.deleteNote(p.ID)
		case model.HistoryEntry:
			return m, m.deleteHistory(p.ID)
		}
		return m, nil

	case settings.SavedMsg:
		m.cfg = msg.Config
		m.helpView.SetPoll(msg.Config.Poll)
		return m.updateActiveView(msg)

	case settings.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active view.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return tea.Quit, true
	}
	// Forms and the search box own every other key.
	if m.currentView == ViewNoteForm || m.currentView == ViewConfirm || m.currentView == ViewSettings ||
		(m.currentView == ViewStructure && m.structureView.Searching()) {
		return nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewStructure {
			m.poller.Stop()
			return tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewHelp || m.currentView == ViewCommand {
			m.currentView = m.previousView
			return nil, true
		}

	case "s":
		if m.currentView == ViewStructure {
			return m.openSettings(), true
		}

	case "r":
		switch m.currentView {
		case ViewStructure:
			return m.poller.Trigger(taskStructure), true
		case ViewBoard:
			return m.reloadBoard(), true
		}
	}

	if m.currentView == ViewStructure || m.currentView == ViewBoard {
		m.errMsg = ""
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewStructure:
		m.structureView, cmd = m.structureView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewNoteForm:
		m.noteForm, cmd = m.noteForm.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.header())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(ui.StatusBar{
		Mode:  m.modeName(),
		Hints: m.keyHints(),
		Err:   m.errMsg,
	})

	return m.layout.Frame(header, content, statusBar)
}

// header names the open channel and its stage once its board has loaded.
func (m Model) header() ui.Header {
	h := ui.Header{Sync: m.syncStatus()}
	if m.pending == 0 {
		return h
	}
	if b, ok := m.session.Board(); ok && b.Entity.ID == m.pending {
		h.Channel = b.Entity.Name
		h.Stage = b.Entity.StatusLabel
		if h.Stage == "" {
			h.Stage, _ = model.StatusLabel(b.Entity.CurrentStatus)
		}
	}
	return h
}

func (m Model) modeName() string {
	switch m.currentView {
	case ViewBoard:
		return "BOARD"
	case ViewHelp:
		return "HELP"
	case ViewCommand:
		return "COMMAND"
	case ViewNoteForm:
		return "NOTE"
	case ViewConfirm:
		return "CONFIRM"
	case ViewSettings:
		return "SETTINGS"
	}
	return "CHANNELS"
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewStructure:
		return m.structureView.View()
	case ViewBoard:
		return m.boardView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewNoteForm:
		return m.noteForm.View()
	case ViewConfirm:
		return m.confirmView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// syncStatus reports pending saves first, then poller trouble, then the
// freshness of what is on screen.
func (m Model) syncStatus() ui.SyncStatus {
	if m.inFlight > 0 {
		return ui.SyncStatus{Text: "saving…", State: ui.SyncBusy}
	}
	for _, s := range m.poller.Statuses() {
		if !s.Enabled {
			continue
		}
		switch s.State {
		case poll.TaskRunning:
			return ui.SyncStatus{Text: "syncing " + s.Task, State: ui.SyncBusy}
		case poll.TaskError:
			return ui.SyncStatus{Text: s.Task + " unreachable", State: ui.SyncFailing}
		}
	}
	if m.currentView == ViewBoard && m.session.Stale() {
		return ui.SyncStatus{Text: "offline · snapshot " + humanize.Time(m.cachedAt), State: ui.SyncOffline}
	}
	if m.structure.Stale() {
		return ui.SyncStatus{Text: m.structureView.Summary(), State: ui.SyncOffline}
	}
	return ui.SyncStatus{Text: m.structureView.Summary()}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewBoard:
		return "esc back | h/l column | m move here | n new | e edit | d delete | J/K reorder | tab history | x hide"
	case ViewNoteForm:
		return "tab next field | enter submit | esc cancel"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewSettings:
		return "tab next field | enter save | esc cancel"
	default:
		return "q quit | ? help | enter open | / search | r refresh | s settings | : command"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "refresh", "sync":
		if m.currentView == ViewBoard {
			return m.reloadBoard()
		}
		return m.poller.Trigger(taskStructure)
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit
	case "open":
		var id int64
		if _, err := fmt.Sscan(arg, &id); err != nil || id <= 0 {
			m.errMsg = fmt.Sprintf("open: invalid entity id %q", arg)
			return nil
		}
		return m.openBoard(id)
	case "move":
		b, ok := m.session.Board()
		if !ok || m.currentView != ViewBoard {
			m.errMsg = "move: no board open"
			return nil
		}
		col, err := model.ParseColumnID(b.Columns, arg)
		if err != nil {
			m.errMsg = "move: " + err.Error()
			return nil
		}
		return m.moveStatus(col)
	case "settings":
		return m.openSettings()
	case "close", "back":
		if m.currentView == ViewBoard {
			return m.closeBoard()
		}
		return nil
	default:
		m.errMsg = fmt.Sprintf("unknown command %q", name)
		return nil
	}
}

func (m *Model) openSettings() tea.Cmd {
	if m.currentView != ViewSettings {
		m.previousView = m.currentView
	}
	m.currentView = ViewSettings
	return m.settingsView.Start(m.cfg)
}

// fail records an error for the status bar.
func (m *Model) fail(op string, err error) {
	msg := api.UserMessage(err)
	if api.IsAuthError(err) {
		msg = "unauthorized, store a token with `kanban token set`"
	}
	if op != "" {
		msg = op + ": " + msg
	}
	m.errMsg = msg
	m.log.Warn().Err(err).Str("op", op).Msg("console action failed")
}

func (m *Model) done() {
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
