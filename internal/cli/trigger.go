package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/store"
	"github.com/nhle/channel-kanban/internal/uploadtrigger"
)

type triggerFlags struct {
	sheet         string
	config        string
	spreadsheetID string
	webhook       string
}

func (f *triggerFlags) register(cmd *cobra.Command, withSheet bool) {
	if withSheet {
		cmd.Flags().StringVar(&f.sheet, "sheet", "", "video sheet exported as CSV (required)")
	}
	cmd.Flags().StringVar(&f.config, "channel-config", "", "Config sheet exported as CSV (required)")
	cmd.Flags().StringVar(&f.spreadsheetID, "spreadsheet-id", "", "spreadsheet id sent to the webhook (default: sheet file name)")
	cmd.Flags().StringVar(&f.webhook, "webhook", "", "override upload.webhook_url")
}

func (f *triggerFlags) id() string {
	if f.spreadsheetID != "" {
		return f.spreadsheetID
	}
	base := filepath.Base(f.sheet)
	if f.sheet == "" {
		base = filepath.Base(f.config)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (rt *runtime) trigger(f *triggerFlags, writer uploadtrigger.RowWriter) (*uploadtrigger.Trigger, error) {
	url := f.webhook
	if url == "" {
		url = rt.cfg.Upload.WebhookURL
	}
	if url == "" {
		return nil, usagef(errors.New("no webhook url: set upload.webhook_url or pass --webhook"))
	}
	opts := []uploadtrigger.Option{uploadtrigger.WithLogger(rt.log)}
	if rt.env.HTTPClient != nil {
		opts = append(opts, uploadtrigger.WithHTTPClient(rt.env.HTTPClient))
	}
	opts = append(opts, uploadtrigger.WithTimeout(time.Duration(rt.cfg.Upload.TimeoutSec)*time.Second))
	if db := rt.store(); db != nil {
		opts = append(opts, uploadtrigger.WithRecorder(db))
	}
	return uploadtrigger.New(url, writer, opts...), nil
}

func newTriggerCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Send finished videos from the planning sheet to the upload webhook",
	}
	cmd.AddCommand(newTriggerRunCmd(rt), newTriggerTestCmd(rt), newTriggerLogCmd(rt))
	return cmd
}

type triggerRow struct {
	Row        int                   `json:"row"`
	Outcome    model.DispatchOutcome `json:"outcome"`
	Reason     string                `json:"reason,omitempty"`
	StatusCode int                   `json:"status_code,omitempty"`
	Marker     string                `json:"marker,omitempty"`
}

func newTriggerRunCmd(rt *runtime) *cobra.Command {
	var (
		f     triggerFlags
		row   int
		sheet string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate sheet rows and notify the webhook for the ready ones",
		Long: `Evaluate rows of the video sheet as if they had just been edited. A row is
sent when its status is "done", it was neither posted nor uploaded, and it
has a title and a drive link. A failed send writes an error marker into the
upload column; nothing is retried.

Examples:
  kanban trigger run --sheet videos.csv --channel-config config.csv
  kanban trigger run --sheet videos.csv --channel-config config.csv --row 12`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if f.sheet == "" || f.config == "" {
				return usagef(errors.New("--sheet and --channel-config are required"))
			}
			csv, err := uploadtrigger.OpenCSVSheet(f.sheet)
			if err != nil {
				return err
			}
			cfg, err := uploadtrigger.LoadChannelConfig(f.config)
			if err != nil {
				return err
			}
			t, err := rt.trigger(&f, csv)
			if err != nil {
				return err
			}

			rows := csv.Rows()
			if row > 0 {
				r, err := csv.Row(row)
				if err != nil {
					return usagef(err)
				}
				rows = []uploadtrigger.Row{r}
			}

			var (
				out    []triggerRow
				failed int
			)
			for _, r := range rows {
				res := t.OnEdit(ctx, uploadtrigger.Edit{
					Sheet:         sheet,
					SpreadsheetID: f.id(),
					Row:           r,
					Config:        cfg,
				})
				tr := triggerRow{
					Row:        r.Number,
					Outcome:    res.Outcome,
					Reason:     string(res.Skip),
					StatusCode: res.Response.StatusCode,
					Marker:     res.Marker,
				}
				if res.Err != nil {
					tr.Reason = res.Err.Error()
					failed++
				}
				out = append(out, tr)
			}

			if err := rt.formatter().Success(out, func(w io.Writer) {
				for _, tr := range out {
					detail := tr.Reason
					if tr.Marker != "" {
						detail = tr.Marker
					}
					fmt.Fprintf(w, "row %-5d %-8s %s\n", tr.Row, tr.Outcome, detail)
				}
			}); err != nil {
				return err
			}
			if failed > 0 {
				fmt.Fprintf(rt.env.Err, "%d of %d row(s) failed\n", failed, len(out))
				return errReported
			}
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().IntVar(&row, "row", 0, "only evaluate this row number")
	cmd.Flags().StringVar(&sheet, "sheet-name", uploadtrigger.VideoSheet, "name of the edited sheet")
	return cmd
}

type webhookTestResult struct {
	Payload    uploadtrigger.Payload `json:"payload"`
	StatusCode int                   `json:"status_code"`
	Body       string                `json:"body"`
}

func newTriggerTestCmd(rt *runtime) *cobra.Command {
	var f triggerFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test payload (row 999) to the webhook",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.config == "" {
				return usagef(errors.New("--channel-config is required"))
			}
			cfg, err := uploadtrigger.LoadChannelConfig(f.config)
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("channel config %s not found", f.config)
			}
			t, err := rt.trigger(&f, nil)
			if err != nil {
				return err
			}

			p, resp, err := t.TestWebhook(cmd.Context(), *cfg, f.id())
			if err != nil {
				return err
			}
			res := webhookTestResult{Payload: p, StatusCode: resp.StatusCode, Body: resp.Body}
			if err := rt.formatter().Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "Status: %d\n%s\n", resp.StatusCode, resp.Body)
			}); err != nil {
				return err
			}
			if resp.StatusCode != 200 {
				return errReported
			}
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func newTriggerLogCmd(rt *runtime) *cobra.Command {
	var (
		outcome       string
		spreadsheetID string
		limit         int
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recorded trigger evaluations, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := rt.store()
			if db == nil {
				return errors.New("local cache is disabled or unavailable")
			}
			filter := store.DispatchFilter{Limit: limit}
			if outcome != "" {
				o := model.DispatchOutcome(outcome)
				switch o {
				case model.DispatchSent, model.DispatchSkipped, model.DispatchFailed:
				default:
					return usagef(fmt.Errorf("invalid outcome %q (must be: sent, skipped, failed)", outcome))
				}
				filter.Outcome = &o
			}
			if spreadsheetID != "" {
				filter.SpreadsheetID = &spreadsheetID
			}

			ds, err := db.GetDispatches(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return rt.formatter().Success(ds, func(w io.Writer) {
				renderDispatches(w, ds)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "only show sent, skipped or failed")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "only show one spreadsheet")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries")
	return cmd
}
