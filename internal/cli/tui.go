package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/app"
	"github.com/nhle/channel-kanban/internal/credential"
	"github.com/nhle/channel-kanban/internal/logging"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
	"github.com/nhle/channel-kanban/internal/ui/settings"
)

func newTUICmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alt screen owns the terminal, so logs go to the file.
			level := rt.cfg.Log.Level
			if rt.flags.verbose {
				level = "debug"
			}
			l, err := logging.New().FromPath(rt.cfg.Log.Path).Level(level).Make()
			if err != nil {
				return err
			}
			defer l.Close()
			rt.log = l.Logger

			deps := app.Deps{
				Config:  rt.cfg,
				Backend: rt.client(),
				Log:     rt.log,
				Probe:   rt.probe,
				Save:    rt.saveSettings,
			}
			if db := rt.store(); db != nil {
				deps.Cache = db
			}
			theme.Apply(rt.cfg.Display.Theme)

			m := app.New(cmd.Context(), deps)
			defer m.Stop()

			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(rt.env.In),
				tea.WithOutput(rt.env.Out),
			)
			rt.log.Info().Str("base_url", rt.cfg.API.BaseURL).Msg("console started")
			_, err = p.Run()
			return err
		},
	}
}

// probe checks a candidate backend by fetching its structure. An empty
// token falls back to the stored one.
func (rt *runtime) probe(ctx context.Context, baseURL, token string) error {
	if token == "" && rt.env.Credentials != nil {
		token, _ = rt.env.Credentials.APIToken()
	}
	_, err := rt.clientFor(baseURL, token).FetchStructure(ctx)
	return err
}

func (rt *runtime) saveSettings(cfg model.AppConfig, token string) error {
	if err := model.SaveConfig(rt.flags.configPath, &cfg); err != nil {
		return settings.SaveError(err)
	}
	if token == "" || rt.env.Credentials == nil {
		return nil
	}
	return settings.SaveError(rt.env.Credentials.Set(credential.APITokenKey, token))
}
