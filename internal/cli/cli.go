// Package cli implements the kanban command line: one cobra command per
// backend operation, sharing config loading, logging and client wiring.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/api"
	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/credential"
	"github.com/nhle/channel-kanban/internal/logging"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/store"
)

// Env holds the process-level collaborators of the CLI. Tests replace them.
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Credentials *credential.Store

	// HTTPClient is used for backend and webhook requests when set.
	HTTPClient *http.Client

	// Confirm asks a yes/no question before destructive actions.
	Confirm func(title, description string) (bool, error)

	// Prompt asks for a secret value.
	Prompt func(title string) (string, error)
}

// DefaultEnv wires the CLI to the terminal and the system keyring.
func DefaultEnv() Env {
	return Env{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Credentials: credential.NewStore(),
		Confirm:     huhConfirm,
		Prompt:      huhSecret,
	}
}

func huhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func huhSecret(title string) (string, error) {
	var v string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&v).
		Run()
	return strings.TrimSpace(v), err
}

type globalFlags struct {
	configPath string
	baseURL    string
	json       bool
	yaml       bool
	verbose    bool
}

// runtime is the per-invocation state shared by every command.
type runtime struct {
	env   Env
	flags globalFlags
	cfg   *model.AppConfig
	log   zerolog.Logger
	db    *store.SQLiteStore
}

func (rt *runtime) load() error {
	cfg, err := model.LoadConfig(rt.flags.configPath)
	if err != nil {
		return err
	}
	if rt.flags.baseURL != "" {
		cfg.API.BaseURL = rt.flags.baseURL
	}
	rt.cfg = cfg

	level := "warn"
	if rt.flags.verbose {
		level = "debug"
	}
	l, err := logging.New().FromWriter(rt.env.Err).Console(true).Level(level).Make()
	if err != nil {
		return err
	}
	rt.log = l.Logger
	return nil
}

func (rt *runtime) formatter() *OutputFormatter {
	f := &OutputFormatter{Format: FormatHuman, Out: rt.env.Out, Err: rt.env.Err}
	switch {
	case rt.flags.json:
		f.Format = FormatJSON
	case rt.flags.yaml:
		f.Format = FormatYAML
	}
	return f
}

// client builds the backend client. A keyring that cannot be opened only
// means requests go out without a token.
func (rt *runtime) client() *api.Client {
	var tok string
	if rt.env.Credentials != nil {
		var err error
		if tok, err = rt.env.Credentials.APIToken(); err != nil {
			rt.log.Warn().Err(err).Msg("reading api token")
		}
	}
	return rt.clientFor(rt.cfg.API.BaseURL, tok)
}

func (rt *runtime) clientFor(baseURL, token string) *api.Client {
	opts := []api.Option{
		api.WithEntitySegment(rt.cfg.API.EntitySegment),
		api.WithLogger(rt.log),
	}
	if rt.env.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(rt.env.HTTPClient))
	}
	opts = append(opts, api.WithTimeout(time.Duration(rt.cfg.API.TimeoutSec)*time.Second))
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	return api.NewClient(baseURL, opts...)
}

// store opens the snapshot database lazily. It returns nil when the cache
// is disabled or cannot be opened.
func (rt *runtime) store() *store.SQLiteStore {
	if rt.db != nil || rt.cfg.Cache.DBPath == "" {
		return rt.db
	}
	if path := rt.cfg.Cache.DBPath; path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			rt.log.Warn().Err(err).Msg("creating cache directory")
			return nil
		}
	}
	db, err := store.NewSQLiteStore(rt.cfg.Cache.DBPath)
	if err != nil {
		rt.log.Warn().Err(err).Str("path", rt.cfg.Cache.DBPath).Msg("opening cache")
		return nil
	}
	rt.db = db
	return db
}

func (rt *runtime) boardOptions() []board.Option {
	opts := []board.Option{
		board.WithLogger(rt.log),
		board.WithHistoryLimits(rt.cfg.History.FetchLimit, rt.cfg.History.VisibleLimit),
	}
	if db := rt.store(); db != nil {
		opts = append(opts, board.WithCache(db))
	}
	return opts
}

func (rt *runtime) close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("closing cache")
		}
		rt.db = nil
	}
}

// NewRootCmd builds the command tree bound to env.
func NewRootCmd(env Env) *cobra.Command {
	return newRootCmd(&runtime{env: env, log: zerolog.Nop()})
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "Channel workflow console",
		Long: `kanban drives the channel workflow backend: the grouped channel
structure, each channel's status board, its notes and history, and the
spreadsheet upload trigger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
	}
	root.SetIn(rt.env.In)
	root.SetOut(rt.env.Out)
	root.SetErr(rt.env.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usagef(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.configPath, "config", model.DefaultConfigPath(), "config file")
	pf.StringVar(&rt.flags.baseURL, "base-url", "", "override api.base_url")
	pf.BoolVar(&rt.flags.json, "json", false, "print JSON")
	pf.BoolVar(&rt.flags.yaml, "yaml", false, "print YAML")
	pf.BoolVarP(&rt.flags.verbose, "verbose", "v", false, "debug logging")
	root.MarkFlagsMutuallyExclusive("json", "yaml")

	root.AddCommand(
		newTUICmd(rt),
		newStructureCmd(rt),
		newBoardCmd(rt),
		newMoveCmd(rt),
		newNoteCmd(rt),
		newHistoryCmd(rt),
		newTriggerCmd(rt),
		newTokenCmd(rt),
	)
	return root
}

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failed")

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, env Env, args []string) int {
	rt := &runtime{env: env, log: zerolog.Nop()}
	root := newRootCmd(rt)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	rt.close()
	if err == nil {
		return ExitSuccess
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		err = usagef(err)
	}
	if !errors.Is(err, errReported) {
		_ = rt.formatter().ErrorWithSuggestion(errorCode(err), err.Error(), suggestion(err))
	}
	return ExitCode(err)
}

func suggestion(err error) string {
	switch {
	case api.IsAuthError(err):
		return "store a token with `kanban token set`"
	case api.IsTransport(err):
		return "check api.base_url, or read the last snapshot with --cached"
	case errors.Is(err, board.ErrUnknownColumn):
		return "run `kanban board <id>` to list the entity's columns"
	case errors.Is(err, board.ErrInvalidColor):
		return "use one of: " + paletteList()
	}
	return ""
}

func paletteList() string {
	names := make([]string, len(model.NotePalette))
	for i, c := range model.NotePalette {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef(fmt.Errorf("invalid %s id %q", kind, s))
	}
	return id, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef(fmt.Errorf("%s takes %d argument(s), got %d", cmd.CommandPath(), n, len(args)))
		}
		return nil
	}
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return usagef(fmt.Errorf("%s takes %d to %d arguments, got %d", cmd.CommandPath(), lo, hi, len(args)))
		}
		return nil
	}
}
