package model

import "time"

// DispatchOutcome is the result of evaluating one edited spreadsheet row.
type DispatchOutcome string

const (
	DispatchSent    DispatchOutcome = "sent"
	DispatchSkipped DispatchOutcome = "skipped"
	DispatchFailed  DispatchOutcome = "failed"
)

// Dispatch is a local log record of an upload-trigger evaluation.
type Dispatch struct {
	ID            string          `json:"id" db:"id"`
	SpreadsheetID string          `json:"spreadsheet_id" db:"spreadsheet_id"`
	Row           int             `json:"row" db:"sheet_row"`
	Title         string          `json:"title" db:"title"`
	Outcome       DispatchOutcome `json:"outcome" db:"outcome"`
	Reason        string          `json:"reason,omitempty" db:"reason"`
	StatusCode    int             `json:"status_code,omitempty" db:"status_code"`
	Marker        string          `json:"marker,omitempty" db:"marker"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
