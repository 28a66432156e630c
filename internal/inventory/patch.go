package inventory

import (
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/fridge-monitor/pkg/enums"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/validators"
)

const dateOnly = "2006-01-02"

// ItemPatch names the only fields a caller may change. Nil fields are left
// alone; an empty ExpiresAt clears the expiry.
type ItemPatch struct {
	Status    *enums.ItemStatus `json:"status,omitempty" validate:"omitempty,oneof=in_fridge removed"`
	ExpiresAt *string           `json:"expiresAt,omitempty"`
	Label     *string           `json:"label,omitempty" validate:"omitempty,max=64"`
	Category  *string           `json:"category,omitempty" validate:"omitempty,max=32"`
}

// DecodePatch reads a JSON patch, rejecting unknown keys.
func DecodePatch(r io.Reader) (ItemPatch, error) {
	var patch ItemPatch
	if err := validators.DecodeJSON(r, &patch); err != nil {
		return ItemPatch{}, err
	}
	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Status == nil && p.ExpiresAt == nil && p.Label == nil && p.Category == nil
}

// apply returns the patched copy of item, or a validation/state error. item is
// not modified.
func (p ItemPatch) apply(item Item) (Item, error) {
	if err := validators.Struct(&p); err != nil {
		return Item{}, err
	}

	next := item
	if p.Status != nil {
		if !p.Status.IsValid() {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
				WithDetails(map[string]any{"status": p.Status.String()})
		}
		if !item.Status.CanTransitionTo(*p.Status) {
			return Item{}, pkgerrors.New(pkgerrors.CodeStateConflict, "removed items cannot return to the fridge").
				WithDetails(map[string]any{"from": item.Status.String(), "to": p.Status.String()})
		}
		next.Status = *p.Status
	}
	if p.ExpiresAt != nil {
		expiresAt, err := ParseDate(*p.ExpiresAt)
		if err != nil {
			return Item{}, err
		}
		next.ExpiresAt = expiresAt
	}
	if p.Label != nil {
		label := validators.SanitizeString(*p.Label, 64)
		if label == "" {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "label must not be blank")
		}
		next.Label = label
	}
	if p.Category != nil {
		category := enums.NormalizeCategory(*p.Category)
		if category == "" {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "category must not be blank")
		}
		next.Category = category
	}
	return next, nil
}

// ParseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates (midnight
// UTC). An empty string yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, dateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed date").
		WithDetails(map[string]any{"expiresAt": raw, "expected": "RFC3339 or YYYY-MM-DD"})
}
