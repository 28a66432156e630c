package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/angelmondragon/fridge-monitor/internal/storage"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/angelmondragon/fridge-monitor/pkg/validators"
)

const DefaultMacrosKey = "fridge_macro_overrides_v1"

// ItemMacros is the nutrition for one serving of an item.
type ItemMacros struct {
	Calories float64 `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" yaml:"fat" validate:"gte=0"`
	Serving  string  `json:"serving" yaml:"serving" validate:"max=64"`
}

var defaultMacros = map[string]ItemMacros{
	"asian pear":  {Calories: 100, Protein: 1, Carbs: 26, Fat: 0, Serving: "1 medium"},
	"cucumber":    {Calories: 16, Protein: 1, Carbs: 4, Fat: 0, Serving: "1 cup"},
	"eggs":        {Calories: 155, Protein: 13, Carbs: 1, Fat: 11, Serving: "2 large"},
	"leafy green": {Calories: 20, Protein: 2, Carbs: 3, Fat: 0, Serving: "2 cups"},
	"leftovers":   {Calories: 400, Protein: 20, Carbs: 40, Fat: 15, Serving: "1 container"},
	"orange":      {Calories: 62, Protein: 1, Carbs: 15, Fat: 0, Serving: "1 medium"},
	"sauce":       {Calories: 60, Protein: 1, Carbs: 6, Fat: 4, Serving: "2 tbsp"},
	"soda":        {Calories: 140, Protein: 0, Carbs: 39, Fat: 0, Serving: "12 oz"},
	"tomato":      {Calories: 22, Protein: 1, Carbs: 5, Fat: 0, Serving: "1 medium"},
}

// Default returns the built-in macros for label, if any.
func Default(label string) (ItemMacros, bool) {
	m, ok := defaultMacros[validators.NormalizeLabel(label)]
	return m, ok
}

// DefaultLabels lists labels with built-in macros, sorted.
func DefaultLabels() []string {
	out := make([]string, 0, len(defaultMacros))
	for label := range defaultMacros {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// MacroStore resolves macros as override, then default, then nothing.
// Overrides are keyed by lower-cased label and persisted as one blob.
type MacroStore struct {
	mu        sync.RWMutex
	overrides map[string]ItemMacros
	blobs     storage.BlobStore
	key       string
	logg      *logger.Logger
}

func NewMacroStore(blobs storage.BlobStore, key string, logg *logger.Logger) (*MacroStore, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultMacrosKey
	}
	return &MacroStore{
		overrides: map[string]ItemMacros{},
		blobs:     blobs,
		key:       key,
		logg:      logg,
	}, nil
}

// Load reads persisted overrides. A missing or null blob means none.
func (s *MacroStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// reload reads the blob into s.overrides. Caller holds s.mu for writing.
func (s *MacroStore) reload(ctx context.Context) error {
	payload, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return err
	}
	overrides := map[string]ItemMacros{}
	if ok && len(payload) > 0 {
		var raw map[string]ItemMacros
		if err := json.Unmarshal(payload, &raw); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode macro overrides").
				WithDetails(map[string]any{"key": s.key})
		}
		for label, m := range raw {
			overrides[validators.NormalizeLabel(label)] = m
		}
	}
	s.overrides = overrides
	return nil
}

// refresh picks up overrides written by other processes. A failed read keeps
// the last overrides that loaded cleanly.
func (s *MacroStore) refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "macro overrides reload failed; serving cached overrides")
	}
}

// Get returns the override for label, else the default, else nil.
func (s *MacroStore) Get(ctx context.Context, label string) *ItemMacros {
	key := validators.NormalizeLabel(label)
	s.refresh(ctx)
	s.mu.RLock()
	m, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok {
		return &m
	}
	if m, ok := defaultMacros[key]; ok {
		return &m
	}
	return nil
}

// IsOverridden reports whether label currently has an override.
func (s *MacroStore) IsOverridden(ctx context.Context, label string) bool {
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[validators.NormalizeLabel(label)]
	return ok
}

// Set fully replaces the override for label.
func (s *MacroStore) Set(ctx context.Context, label string, macros ItemMacros) error {
	key := validators.NormalizeLabel(label)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	if err := validators.Struct(&macros); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return err
	}
	next := s.cloneOverrides()
	next[key] = macros
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "label", key), "macro override saved")
	}
	return nil
}

// Reset drops the override for label. Resetting a label without one is a no-op.
func (s *MacroStore) Reset(ctx context.Context, label string) error {
	key := validators.NormalizeLabel(label)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return err
	}
	if _, ok := s.overrides[key]; !ok {
		return nil
	}
	next := s.cloneOverrides()
	delete(next, key)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "label", key), "macro override reset")
	}
	return nil
}

// Overrides returns a copy of every override.
func (s *MacroStore) Overrides(ctx context.Context) map[string]ItemMacros {
	s.refresh(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneOverrides()
}

func (s *MacroStore) cloneOverrides() map[string]ItemMacros {
	out := make(map[string]ItemMacros, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// persist writes next and swaps it in. Caller holds s.mu for writing.
func (s *MacroStore) persist(ctx context.Context, next map[string]ItemMacros) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode macro overrides")
	}
	if err := s.blobs.Put(ctx, s.key, payload); err != nil {
		return err
	}
	s.overrides = next
	return nil
}
