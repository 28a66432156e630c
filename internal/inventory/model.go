package inventory

import (
	"time"

	"github.com/angelmondragon/fridge-monitor/internal/detection"
	"github.com/angelmondragon/fridge-monitor/internal/expiry"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
)

// Item is one physical thing in (or formerly in) the fridge.
type Item struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Category   enums.Category   `json:"category"`
	Confidence float64          `json:"confidence"`
	CreatedAt  time.Time        `json:"createdAt"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	Status     enums.ItemStatus `json:"status"`
}

// InFridge reports whether the item is still present.
func (i Item) InFridge() bool {
	return i.Status == enums.ItemStatusInFridge
}

// Event records one scan. IN events list the created items in detection
// order; OUT events name the removed item when there was one.
type Event struct {
	ID            string                `json:"id"`
	Type          enums.EventType       `json:"type"`
	Timestamp     time.Time             `json:"timestamp"`
	ImageURL      string                `json:"imageUrl,omitempty"`
	Detections    []detection.Detection `json:"detections"`
	ResultSummary string                `json:"resultSummary"`
	ItemIDs       []string              `json:"itemIds,omitempty"`
	RemovedItemID string                `json:"removedItemId,omitempty"`
}

// ScanInput identifies what was scanned.
type ScanInput struct {
	Identifier string `json:"identifier"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

type ScanInResult struct {
	Event        Event  `json:"event"`
	CreatedItems []Item `json:"createdItems"`
}

type ScanOutResult struct {
	Event       Event `json:"event"`
	RemovedItem *Item `json:"removedItem"`
}

// State is the persisted shape of the whole inventory. Items and events are
// kept newest first.
type State struct {
	Items          []Item          `json:"items"`
	Events         []Event         `json:"events"`
	ExpiryDefaults expiry.Defaults `json:"expiryDefaults"`
}

func newState() State {
	return State{
		Items:          []Item{},
		Events:         []Event{},
		ExpiryDefaults: expiry.DefaultTable(),
	}
}

// clone copies the containers. Items and events are values; the slices
// inside events and the ExpiresAt pointers are never written through.
func (s State) clone() State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return State{
		Items:          items,
		Events:         events,
		ExpiryDefaults: s.ExpiryDefaults.Clone(),
	}
}
