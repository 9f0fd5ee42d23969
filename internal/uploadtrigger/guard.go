// Package uploadtrigger decides whether an edited row of the video planning
// sheet is ready for upload and, if so, notifies the upload webhook.
package uploadtrigger

import "strings"

// VideoSheet is the only sheet whose edits are considered.
const VideoSheet = "Videos"

// StatusReady is the status cell value that marks a video as finished.
const StatusReady = "done"

// Zero-based column indexes of the video sheet.
const (
	ColTitle       = 0  // A
	ColDescription = 1  // B
	ColStatus      = 9  // J
	ColPost        = 10 // K
	ColDriveURL    = 12 // M
	ColUpload      = 14 // O

	RowWidth = 15
)

// ChannelConfig is the per-spreadsheet channel description stored in the
// Config sheet.
type ChannelConfig struct {
	ChannelID   string
	Subgroup    string
	Language    string
	ChannelName string
}

// Complete reports whether the fields the webhook needs are present. The
// channel name is optional.
func (c ChannelConfig) Complete() bool {
	return c.ChannelID != "" && c.Subgroup != "" && c.Language != ""
}

// Row is one sheet row. Number is 1-based, as shown in the sheet.
type Row struct {
	Number int
	Values []string
}

// Cell returns the trimmed value at col, or "" when the row is short.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[col])
}

// Raw returns the value at col exactly as stored, or "" when the row is
// short. The guard chain compares raw values.
func (r Row) Raw(col int) string {
	if col < 0 || col >= len(r.Values) {
		return ""
	}
	return r.Values[col]
}

// Edit describes a single edited row and its surroundings.
type Edit struct {
	Sheet         string
	SpreadsheetID string
	Row           Row
	// Config is nil when the spreadsheet has no Config sheet.
	Config *ChannelConfig
}

// Skip explains why an edit did not trigger an upload.
type Skip string

const (
	SkipNone             Skip = ""
	SkipOtherSheet       Skip = "not the video sheet"
	SkipHeader           Skip = "header row"
	SkipNoConfig         Skip = "config sheet missing"
	SkipIncompleteConfig Skip = "config incomplete"
	SkipNotReady         Skip = "status is not done"
	SkipAlreadyPosted    Skip = "already posted"
	SkipAlreadyUploaded  Skip = "upload already recorded"
	SkipMissingContent   Skip = "title or drive url empty"
)

// Payload is the webhook request body.
type Payload struct {
	VideoURL      string `json:"video_url"`
	Title         string `json:"titulo"`
	Description   string `json:"descricao"`
	ChannelID     string `json:"channel_id"`
	Subgroup      string `json:"subnicho"`
	Language      string `json:"lingua"`
	ChannelName   string `json:"nome_canal"`
	SheetRow      int    `json:"sheets_row"`
	SpreadsheetID string `json:"spreadsheet_id"`
}

// Evaluate runs the guard chain over an edit. The first unmet condition is
// returned as the Skip; SkipNone means the payload is ready to send.
func Evaluate(e Edit) (Payload, Skip) {
	if e.Sheet != VideoSheet {
		return Payload{}, SkipOtherSheet
	}
	if e.Row.Number <= 1 {
		return Payload{}, SkipHeader
	}
	if e.Config == nil {
		return Payload{}, SkipNoConfig
	}
	if !e.Config.Complete() {
		return Payload{}, SkipIncompleteConfig
	}

	r := e.Row
	if r.Raw(ColStatus) != StatusReady {
		return Payload{}, SkipNotReady
	}
	if r.Raw(ColPost) != "" {
		return Payload{}, SkipAlreadyPosted
	}
	if r.Raw(ColUpload) != "" {
		return Payload{}, SkipAlreadyUploaded
	}
	title, driveURL := r.Raw(ColTitle), r.Raw(ColDriveURL)
	if title == "" || driveURL == "" {
		return Payload{}, SkipMissingContent
	}

	return Payload{
		VideoURL:      driveURL,
		Title:         title,
		Description:   r.Raw(ColDescription),
		ChannelID:     e.Config.ChannelID,
		Subgroup:      e.Config.Subgroup,
		Language:      e.Config.Language,
		ChannelName:   e.Config.ChannelName,
		SheetRow:      r.Number,
		SpreadsheetID: e.SpreadsheetID,
	}, SkipNone
}

// TestPayload is the fixed payload sent by a manual webhook test.
func TestPayload(cfg ChannelConfig, spreadsheetID string) Payload {
	return Payload{
		VideoURL:      "https://drive.google.com/uc?id=TEST123",
		Title:         "TESTE - Upload Automatizado",
		Description:   "Teste do sistema de upload automatizado #teste #automacao",
		ChannelID:     cfg.ChannelID,
		Subgroup:      cfg.Subgroup,
		Language:      cfg.Language,
		ChannelName:   cfg.ChannelName,
		SheetRow:      999,
		SpreadsheetID: spreadsheetID,
	}
}
