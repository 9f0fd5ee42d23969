package model

import (
	"fmt"
	"time"
)

// Entity is a monitored channel whose workflow status and notes are tracked.
type Entity struct {
	// ID is the backend's stable identifier.
	ID int64 `json:"id"`

	// Name is the channel display name.
	Name string `json:"name"`

	// Subgroup is the subniche the channel is grouped under.
	Subgroup string `json:"subgroup"`

	// Language is the channel's language tag (e.g. "portuguese").
	Language string `json:"language,omitempty"`

	// URL links to the channel page.
	URL string `json:"url,omitempty"`

	// Monetized selects the column set of the entity's board.
	Monetized bool `json:"monetized"`

	// CurrentStatus is the stage the entity currently sits in.
	CurrentStatus ColumnID `json:"current_status"`

	// StatusLabel, StatusColor and StatusEmoji describe CurrentStatus for
	// summary views.
	StatusLabel string `json:"status_label,omitempty"`
	StatusColor string `json:"status_color,omitempty"`
	StatusEmoji string `json:"status_emoji,omitempty"`

	// StatusSince marks when CurrentStatus began.
	StatusSince *time.Time `json:"status_since,omitempty"`

	// DaysInStatus is the whole number of days spent in CurrentStatus.
	DaysInStatus int `json:"days_in_status"`

	// NoteCount is the number of notes on the entity's board.
	NoteCount int `json:"note_count"`
}

// DaysSince returns the number of whole days between since and now. A nil
// since yields zero.
func DaysSince(since *time.Time, now time.Time) int {
	if since == nil || since.After(now) {
		return 0
	}
	return int(now.Sub(*since).Hours() / 24)
}

var languageFlags = map[string]string{
	"portuguese": "🇧🇷",
	"english":    "🇺🇸",
	"spanish":    "🇪🇸",
	"french":     "🇫🇷",
}

// LanguageFlag maps a language tag to its flag emoji.
func LanguageFlag(lang string) string {
	if f, ok := languageFlags[lang]; ok {
		return f
	}
	return "🏳️"
}

// StatusTag renders the compact status tag shown next to an entity, e.g.
// "🟡 Em Teste Inicial há 49d".
func (e Entity) StatusTag() string {
	label := e.StatusLabel
	if label == "" {
		label, _ = StatusLabel(e.CurrentStatus)
	}
	tag := fmt.Sprintf("%s há %dd", label, e.DaysInStatus)
	if e.StatusEmoji != "" {
		tag = e.StatusEmoji + " " + tag
	}
	return tag
}
