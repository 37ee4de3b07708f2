// Package analytics records reader interaction events such as theme and
// language changes and post shares. Tracking is best-effort: failures are
// logged and never surface to the page that triggered them.
package analytics

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event names.
const (
	CopyCode            = "copy_code"
	ClickRelatedArticle = "click_related_article"
	ChangeLanguage      = "change_language"
	ChangeTheme         = "change_theme"
	ShareFacebook       = "share_facebook"
	ShareTwitter        = "share_twitter"
	ShareLinkedIn       = "share_linkedin"
	ShareTelegram       = "share_telegram"
	ShareWhatsApp       = "share_whatsapp"
)

var known = map[string]struct{}{
	CopyCode:            {},
	ClickRelatedArticle: {},
	ChangeLanguage:      {},
	ChangeTheme:         {},
	ShareFacebook:       {},
	ShareTwitter:        {},
	ShareLinkedIn:       {},
	ShareTelegram:       {},
	ShareWhatsApp:       {},
}

// ErrUnknownEvent is returned for event names outside the known set.
var ErrUnknownEvent = errors.New("analytics: unknown event")

// Known reports whether name is a recognised event.
func Known(name string) bool {
	_, ok := known[name]
	return ok
}

// Event is a recorded interaction.
type Event struct {
	ID        string    `gorm:"primaryKey;size:26"`
	Name      string    `gorm:"not null;index"`
	Params    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// Parameters decodes the event parameters.
func (e Event) Parameters() map[string]string {
	params := map[string]string{}
	_ = json.Unmarshal([]byte(e.Params), &params)
	return params
}

// NewEvent builds an event stamped at now.
func NewEvent(name string, params map[string]string, now time.Time) (*Event, error) {
	if !Known(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	return &Event{ID: id.String(), Name: name, Params: string(raw), CreatedAt: now.UTC()}, nil
}

// Store persists events.
type Store interface {
	Record(ctx context.Context, event *Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Tracker accepts events from the UI path.
type Tracker interface {
	Track(ctx context.Context, name string, params map[string]string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(context.Context, string, map[string]string) {}

// Recorder is a Tracker writing to a Store.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder. A nil logger uses slog.Default().
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Track records an event, logging instead of failing.
func (r *Recorder) Track(ctx context.Context, name string, params map[string]string) {
	event, err := NewEvent(name, params, r.now())
	if err != nil {
		r.logger.Warn("analytics event rejected", "event", name, "error", err)
		return
	}
	if err := r.store.Record(ctx, event); err != nil {
		r.logger.Error("failed to track event", "event", name, "error", err)
		return
	}
	r.logger.Debug("tracked event", "event", name, "id", event.ID)
}
