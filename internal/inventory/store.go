package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/angelmondragon/fridge-monitor/internal/detection"
	"github.com/angelmondragon/fridge-monitor/internal/expiry"
	"github.com/angelmondragon/fridge-monitor/internal/storage"
	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/angelmondragon/fridge-monitor/pkg/metrics"
)

const DefaultStateKey = "fridge_db_v1"

// StoreParams wires a Store.
type StoreParams struct {
	Blobs    storage.BlobStore
	Key      string
	Detector detection.Detector
	Clock    clock.Clock
	NewID    func() string
	Logger   *logger.Logger
	Metrics  *metrics.InventoryMetrics
}

// Store owns items, events and the expiry defaults. Every mutation re-reads
// the persisted blob, builds a new State from it, persists that, and only then
// swaps it in, so a failed call leaves both memory and storage untouched and
// writes made by another process sharing the blob are never overwritten.
type Store struct {
	mu       sync.RWMutex
	state    State
	blobs    storage.BlobStore
	key      string
	detector detection.Detector
	clock    clock.Clock
	newID    func() string
	logg     *logger.Logger
	metrics  *metrics.InventoryMetrics
}

// NewStore builds an empty store. Call Load to read persisted state.
func NewStore(params StoreParams) (*Store, error) {
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if params.Detector == nil {
		return nil, fmt.Errorf("detector required")
	}
	key := strings.TrimSpace(params.Key)
	if key == "" {
		key = DefaultStateKey
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.System()
	}
	newID := params.NewID
	if newID == nil {
		newID = clock.NewID
	}
	return &Store{
		state:    newState(),
		blobs:    params.Blobs,
		key:      key,
		detector: params.Detector,
		clock:    clk,
		newID:    newID,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Load replaces in-memory state with the persisted blob. A missing blob keeps
// the defaults; absent or null fields inside the blob keep their defaults too.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// reload reads the blob into s.state. Caller holds s.mu for writing.
func (s *Store) reload(ctx context.Context) error {
	payload, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return err
	}

	next := newState()
	if ok && len(payload) > 0 {
		if err := json.Unmarshal(payload, &next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode inventory state").
				WithDetails(map[string]any{"key": s.key})
		}
		if next.Items == nil {
			next.Items = []Item{}
		}
		if next.Events == nil {
			next.Events = []Event{}
		}
		if next.ExpiryDefaults == nil {
			next.ExpiryDefaults = expiry.DefaultTable()
		}
	}

	s.state = next

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"key":    s.key,
			"found":  ok,
			"items":  len(next.Items),
			"events": len(next.Events),
		})
		s.logg.Debug(logCtx, "inventory state loaded")
	}
	return nil
}

// refresh picks up writes from other processes before a read. A failed read
// keeps serving the last state that loaded cleanly.
func (s *Store) refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "inventory reload failed; serving cached state")
	}
}

// commit persists next and swaps it in. Caller holds s.mu for writing.
func (s *Store) commit(ctx context.Context, next State) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode inventory state")
	}
	if err := s.blobs.Put(ctx, s.key, payload); err != nil {
		return err
	}
	s.state = next
	return nil
}

// Snapshot returns a consistent copy of the whole state.
func (s *Store) Snapshot(ctx context.Context) State {
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// GetItem returns the item or a NOT_FOUND error.
func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.state.Items, id)
	if idx < 0 {
		return Item{}, itemNotFound(id)
	}
	return s.state.Items[idx], nil
}

// ListItems returns items in store order, optionally filtered by status. An
// empty status means all items.
func (s *Store) ListItems(ctx context.Context, status enums.ItemStatus) ([]Item, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
			WithDetails(map[string]any{"status": status.String()})
	}
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.state.Items))
	for _, item := range s.state.Items {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

// ListEvents returns events newest first. Equal timestamps keep store order.
func (s *Store) ListEvents(ctx context.Context) []Event {
	s.refresh(ctx)
	s.mu.RLock()
	out := make([]Event, len(s.state.Events))
	copy(out, s.state.Events)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// PatchItem applies patch to the item with id. Unknown ids return NOT_FOUND;
// invalid patches are rejected before anything changes.
func (s *Store) PatchItem(ctx context.Context, id string, patch ItemPatch) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return Item{}, err
	}

	idx := indexOf(s.state.Items, id)
	if idx < 0 {
		return Item{}, itemNotFound(id)
	}
	updated, err := patch.apply(s.state.Items[idx])
	if err != nil {
		return Item{}, err
	}
	if patch.IsEmpty() {
		return updated, nil
	}

	next := s.state.clone()
	next.Items[idx] = updated
	if err := s.commit(ctx, next); err != nil {
		return Item{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithItemID(ctx, id), "item patched")
	}
	return updated, nil
}

// ScanIn records everything the detector sees as new in-fridge items, each
// expiring after its category's shelf life.
func (s *Store) ScanIn(ctx context.Context, input ScanInput) (ScanInResult, error) {
	detections, err := s.infer(ctx, input.Identifier)
	if err != nil {
		return ScanInResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return ScanInResult{}, err
	}

	now := s.clock.Now()
	created := make([]Item, 0, len(detections))
	itemIDs := make([]string, 0, len(detections))
	for _, d := range detections {
		days, err := expiry.Days(d.Category, s.state.ExpiryDefaults)
		if err != nil {
			return ScanInResult{}, err
		}
		expiresAt := clock.AddDays(now, days)
		item := Item{
			ID:         s.newID(),
			Label:      d.Label,
			Category:   d.Category,
			Confidence: d.Confidence,
			CreatedAt:  now,
			ExpiresAt:  &expiresAt,
			Status:     enums.ItemStatusInFridge,
		}
		created = append(created, item)
		itemIDs = append(itemIDs, item.ID)
	}

	event := Event{
		ID:            s.newID(),
		Type:          enums.EventTypeIn,
		Timestamp:     now,
		ImageURL:      input.ImageURL,
		Detections:    detections,
		ResultSummary: fmt.Sprintf("Added %d item(s)", len(created)),
		ItemIDs:       itemIDs,
	}

	next := s.state.clone()
	next.Items = append(append(make([]Item, 0, len(created)+len(next.Items)), created...), next.Items...)
	next.Events = append([]Event{event}, next.Events...)
	if err := s.commit(ctx, next); err != nil {
		return ScanInResult{}, err
	}

	s.metrics.ObserveScan(event.Type.String(), len(created), 0)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithEventID(ctx, event.ID), map[string]any{
			"identifier": input.Identifier,
			"created":    len(created),
		})
		s.logg.Info(logCtx, "scan in recorded")
	}

	out := make([]Item, len(created))
	copy(out, created)
	return ScanInResult{Event: event, CreatedItems: out}, nil
}

// ScanOut marks one in-fridge item removed: the first whose label matches the
// first detection, else the first in store order (the newest). With nothing
// in the fridge the event is still recorded and RemovedItem is nil.
func (s *Store) ScanOut(ctx context.Context, input ScanInput) (ScanOutResult, error) {
	detections, err := s.infer(ctx, input.Identifier)
	if err != nil {
		return ScanOutResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return ScanOutResult{}, err
	}

	idx := -1
	if len(detections) > 0 {
		idx = findInFridge(s.state.Items, detections[0].Label)
	}
	if idx < 0 {
		idx = findInFridge(s.state.Items, "")
	}

	event := Event{
		ID:         s.newID(),
		Type:       enums.EventTypeOut,
		Timestamp:  s.clock.Now(),
		ImageURL:   input.ImageURL,
		Detections: detections,
	}

	next := s.state.clone()
	var removed *Item
	if idx < 0 {
		event.ResultSummary = "No items to remove"
	} else {
		item := next.Items[idx]
		item.Status = enums.ItemStatusRemoved
		next.Items[idx] = item
		removed = &item
		event.ResultSummary = "Removed 1 item: " + item.Label
		event.RemovedItemID = item.ID
	}
	next.Events = append([]Event{event}, next.Events...)

	if err := s.commit(ctx, next); err != nil {
		return ScanOutResult{}, err
	}

	removedCount := 0
	if removed != nil {
		removedCount = 1
	}
	s.metrics.ObserveScan(event.Type.String(), 0, removedCount)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithEventID(ctx, event.ID), map[string]any{
			"identifier": input.Identifier,
			"removed_id": event.RemovedItemID,
		})
		s.logg.Info(logCtx, "scan out recorded")
	}

	return ScanOutResult{Event: event, RemovedItem: removed}, nil
}

// ExpiryDefaults returns a copy of the current shelf-life table.
func (s *Store) ExpiryDefaults(ctx context.Context) expiry.Defaults {
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ExpiryDefaults.Clone()
}

// SetExpiryDefaults replaces the whole shelf-life table.
func (s *Store) SetExpiryDefaults(ctx context.Context, defaults expiry.Defaults) (expiry.Defaults, error) {
	if err := expiry.Validate(defaults); err != nil {
		return nil, err
	}
	normalized := expiry.Normalize(defaults)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return nil, err
	}

	next := s.state.clone()
	next.ExpiryDefaults = normalized
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	if s.logg != nil {
		_, hasOther := normalized[enums.CategoryOther]
		logCtx := s.logg.WithFields(ctx, map[string]any{"categories": len(normalized), "has_other": hasOther})
		if hasOther {
			s.logg.Info(logCtx, "expiry defaults replaced")
		} else {
			s.logg.Warn(logCtx, "expiry defaults replaced without an \"other\" fallback")
		}
	}
	return normalized.Clone(), nil
}

func (s *Store) infer(ctx context.Context, identifier string) ([]detection.Detection, error) {
	detections, err := s.detector.Infer(ctx, identifier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detection failed")
	}
	return detections, nil
}

func indexOf(items []Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// findInFridge returns the first in-fridge item with label (case-insensitive),
// or the first in-fridge item at all when label is empty.
func findInFridge(items []Item, label string) int {
	for i, item := range items {
		if !item.InFridge() {
			continue
		}
		if label == "" || strings.EqualFold(item.Label, label) {
			return i
		}
	}
	return -1
}

func itemNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found").WithDetails(map[string]any{"id": id})
}
