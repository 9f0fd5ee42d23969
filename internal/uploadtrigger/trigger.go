package uploadtrigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/channel-kanban/internal/model"
)

// RowWriter writes a single cell back into the video sheet.
type RowWriter interface {
	WriteCell(ctx context.Context, row, col int, value string) error
}

// Recorder keeps a local log of evaluated edits.
type Recorder interface {
	RecordDispatch(ctx context.Context, d model.Dispatch) error
}

// Response is what the webhook answered.
type Response struct {
	StatusCode int
	Body       string
}

// Trigger sends ready rows to the upload webhook. It never retries; a failed
// send leaves a short error marker in the row's upload cell.
type Trigger struct {
	url        string
	httpClient *http.Client
	writer     RowWriter
	recorder   Recorder
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Trigger) { t.httpClient = hc }
}

// WithRecorder enables the dispatch log.
func WithRecorder(r Recorder) Option {
	return func(t *Trigger) { t.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Trigger) { t.log = l }
}

// WithTimeout sets the webhook request timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Trigger) {
		if d > 0 {
			t.httpClient.Timeout = d
		}
	}
}

// New creates a Trigger posting to webhookURL. writer may be nil when no
// marker should be written back.
func New(webhookURL string, writer RowWriter, opts ...Option) *Trigger {
	t := &Trigger{
		url:        webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		writer:     writer,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result summarizes what OnEdit did.
type Result struct {
	Outcome  model.DispatchOutcome
	Skip     Skip
	Payload  Payload
	Response Response
	// Marker is the value written to the upload cell after a failure.
	Marker string
	Err    error
}

// OnEdit evaluates an edited row and notifies the webhook when the row is
// ready. Skipped edits have no side effects besides the dispatch log.
func (t *Trigger) OnEdit(ctx context.Context, e Edit) Result {
	payload, skip := Evaluate(e)
	if skip != SkipNone {
		t.log.Debug().Int("row", e.Row.Number).Str("reason", string(skip)).Msg("edit skipped")
		res := Result{Outcome: model.DispatchSkipped, Skip: skip}
		t.record(ctx, e, res)
		return res
	}

	t.log.Info().
		Int("row", payload.SheetRow).
		Str("channel", payload.ChannelName).
		Msg("sending upload webhook")

	resp, err := t.send(ctx, payload)
	res := Result{Outcome: model.DispatchSent, Payload: payload, Response: resp}
	switch {
	case err != nil:
		res.Outcome = model.DispatchFailed
		res.Err = err
		res.Marker = "❌ " + truncate(rootCause(err).Error(), 20)
	case resp.StatusCode != http.StatusOK:
		res.Outcome = model.DispatchFailed
		res.Err = fmt.Errorf("webhook answered %d: %s", resp.StatusCode, resp.Body)
		res.Marker = fmt.Sprintf("❌ Erro %d", resp.StatusCode)
	}

	if res.Marker != "" {
		t.log.Warn().Err(res.Err).Int("row", payload.SheetRow).Msg("upload webhook failed")
		if t.writer != nil {
			if werr := t.writer.WriteCell(ctx, payload.SheetRow, ColUpload, res.Marker); werr != nil {
				t.log.Warn().Err(werr).Int("row", payload.SheetRow).Msg("writing error marker failed")
			}
		}
	}

	t.record(ctx, e, res)
	return res
}

// TestWebhook sends the fixed test payload and reports the raw response.
// Nothing is written to the sheet.
func (t *Trigger) TestWebhook(ctx context.Context, cfg ChannelConfig, spreadsheetID string) (Payload, Response, error) {
	p := TestPayload(cfg, spreadsheetID)
	resp, err := t.send(ctx, p)
	return p, resp, err
}

func (t *Trigger) send(ctx context.Context, p Payload) (Response, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("reading webhook response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func (t *Trigger) record(ctx context.Context, e Edit, res Result) {
	if t.recorder == nil {
		return
	}
	d := model.Dispatch{
		ID:            uuid.NewString(),
		SpreadsheetID: e.SpreadsheetID,
		Row:           e.Row.Number,
		Title:         e.Row.Cell(ColTitle),
		Outcome:       res.Outcome,
		Reason:        string(res.Skip),
		StatusCode:    res.Response.StatusCode,
		Marker:        res.Marker,
		CreatedAt:     t.now().UTC(),
	}
	if res.Err != nil {
		d.Reason = res.Err.Error()
	}
	if err := t.recorder.RecordDispatch(ctx, d); err != nil {
		t.log.Warn().Err(err).Msg("recording dispatch failed")
	}
}

// rootCause digs through wrapping down to the innermost error, so markers
// name the failure rather than the request URL.
func rootCause(err error) error {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
