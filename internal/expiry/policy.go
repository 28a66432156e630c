package expiry

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
)

// Defaults maps a category to its shelf life in whole days. The "other"
// entry is the fallback for every unconfigured category.
type Defaults map[enums.Category]int

// DefaultTable returns a fresh copy of the built-in shelf lives.
func DefaultTable() Defaults {
	return Defaults{
		enums.CategoryProduce:    5,
		enums.CategoryDairy:      7,
		enums.CategoryProtein:    4,
		enums.CategoryGrains:     90,
		enums.CategoryCondiments: 365,
		enums.CategoryOther:      14,
	}
}

// Clone returns an independent copy.
func (d Defaults) Clone() Defaults {
	if d == nil {
		return nil
	}
	out := make(Defaults, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Days resolves the shelf life for category: the configured value, else the
// "other" fallback. With neither present the table is misconfigured.
func Days(category enums.Category, defaults Defaults) (int, error) {
	if days, ok := defaults[category]; ok {
		return days, nil
	}
	if days, ok := defaults[enums.CategoryOther]; ok {
		return days, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodePolicy, "no expiry configured for category and no \"other\" fallback").
		WithDetails(map[string]any{"category": category.String()})
}

// Validate checks a replacement table before it is stored. Keys that collide
// once trimmed and lower-cased are rejected. A table without "other" is
// accepted; Days reports the gap when it is hit.
func Validate(defaults Defaults) error {
	if defaults == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry defaults are required")
	}
	invalid := map[string]string{}
	seen := make(map[enums.Category]enums.Category, len(defaults))
	for category, days := range defaults {
		if strings.TrimSpace(category.String()) == "" {
			invalid["(blank)"] = "category name is required"
			continue
		}
		key := enums.NormalizeCategory(category.String())
		if prev, ok := seen[key]; ok {
			invalid[key.String()] = fmt.Sprintf("given more than once (%q and %q)", prev, category)
		}
		seen[key] = category
		if days < 0 {
			invalid[category.String()] = fmt.Sprintf("must be >= 0 (got %d)", days)
		}
	}
	if len(invalid) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid expiry defaults").WithDetails(invalid)
	}
	return nil
}

// Normalize lower-cases and trims every category key.
func Normalize(defaults Defaults) Defaults {
	if defaults == nil {
		return nil
	}
	out := make(Defaults, len(defaults))
	for category, days := range defaults {
		out[enums.NormalizeCategory(category.String())] = days
	}
	return out
}

// Categories lists the configured categories in sorted order.
func (d Defaults) Categories() []enums.Category {
	out := make([]enums.Category, 0, len(d))
	for category := range d {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
