// Package poll runs periodic refresh tasks in the background and feeds their
// outcomes to the Bubble Tea runtime as messages.
package poll

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/nhle/channel-kanban/internal/api"
)

// TaskState represents the current state of a polling task.
type TaskState int

const (
	TaskIdle TaskState = iota
	TaskRunning
	TaskError
)

// Status holds the state of a single task.
type Status struct {
	Task    string
	State   TaskState
	Enabled bool
	LastRun time.Time
	Err     error
}

// ResultMsg is a tea.Msg sent when a task run completes.
type ResultMsg struct {
	Task      string
	Err       error
	AuthError bool
	At        time.Time
}

// Task is a unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	// Immediate runs the task once as soon as the poller starts.
	Immediate bool

	// Disabled tasks are registered but skip runs until SetEnabled.
	Disabled bool
}

// defaultTimeout is the maximum time allowed for a single task run.
const defaultTimeout = 30 * time.Second

type taskEntry struct {
	task    Task
	trigger chan struct{}
}

// Poller orchestrates the registered tasks.
type Poller struct {
	clock   clockwork.Clock
	log     zerolog.Logger
	timeout time.Duration

	tasks    []*taskEntry
	statuses map[string]*Status
	resultCh chan ResultMsg
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger for failed runs.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithTimeout bounds a single task run.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a Poller with no tasks.
func New(opts ...Option) *Poller {
	p := &Poller{
		clock:    clockwork.NewRealClock(),
		log:      zerolog.Nop(),
		timeout:  defaultTimeout,
		statuses: make(map[string]*Status),
		resultCh: make(chan ResultMsg, 16),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds a task. Tasks registered after Start are not scheduled.
func (p *Poller) Register(t Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.Interval <= 0 {
		t.Interval = time.Minute
	}
	p.tasks = append(p.tasks, &taskEntry{task: t, trigger: make(chan struct{}, 1)})
	p.statuses[t.Name] = &Status{Task: t.Name, State: TaskIdle, Enabled: !t.Disabled}
}

// Start launches one goroutine per task and returns a command that delivers
// the first ResultMsg. It returns nil if the poller is already running.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	tasks := append([]*taskEntry(nil), p.tasks...)
	p.mu.Unlock()

	for _, e := range tasks {
		go p.loop(e)
	}
	return p.waitForResult()
}

// Stop halts all task goroutines. A stopped poller cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Trigger asks a task to run now. Extra triggers while one is pending are
// dropped.
func (p *Poller) Trigger(name string) tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.tasks {
		if e.task.Name == name {
			select {
			case e.trigger <- struct{}{}:
			default:
			}
		}
	}
	return nil
}

// SetEnabled turns a task's scheduled and triggered runs on or off.
func (p *Poller) SetEnabled(name string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.statuses[name]; ok {
		st.Enabled = on
	}
}

// Statuses returns the state of every task in registration order.
func (p *Poller) Statuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Status, 0, len(p.tasks))
	for _, e := range p.tasks {
		out = append(out, *p.statuses[e.task.Name])
	}
	return out
}

func (p *Poller) enabled(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.statuses[name]
	return ok && st.Enabled
}

func (p *Poller) loop(e *taskEntry) {
	ticker := p.clock.NewTicker(e.task.Interval)
	defer ticker.Stop()

	if e.task.Immediate {
		p.runIfEnabled(e)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.Chan():
			p.runIfEnabled(e)
		case <-e.trigger:
			p.runIfEnabled(e)
		}
	}
}

func (p *Poller) runIfEnabled(e *taskEntry) {
	if !p.enabled(e.task.Name) {
		return
	}
	name := e.task.Name
	p.setStatus(name, TaskRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := e.task.Run(ctx)
	now := p.clock.Now()
	if err != nil {
		p.setStatus(name, TaskError, err)
		p.log.Warn().Err(err).Str("task", name).Msg("poll failed")
		p.sendResult(ResultMsg{Task: name, Err: err, AuthError: api.IsAuthError(err), At: now})
		return
	}

	p.setStatus(name, TaskIdle, nil)
	p.sendResult(ResultMsg{Task: name, At: now})
}

func (p *Poller) setStatus(name string, state TaskState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.statuses[name]
	if !ok {
		return
	}
	st.State = state
	st.Err = err
	if state == TaskIdle {
		st.LastRun = p.clock.Now()
	}
}

// sendResult never blocks the poller; results are dropped when the channel
// is full.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case r := <-p.resultCh:
			return r
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a command that waits for the next ResultMsg.
// Call it after handling each ResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
