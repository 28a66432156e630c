package recipes

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/validators"
	"github.com/shopspring/decimal"
)

const (
	coverageWeight     = 10.0
	missingPenalty     = 1.5
	macroDistanceScale = 0.02
)

// Request asks for recipes close to Target using what is in the fridge.
type Request struct {
	Target             Macros  `json:"target"`
	MinCoverage        float64 `json:"minCoverage" validate:"gte=0,lte=1"`
	PrioritizeExpiring bool    `json:"prioritizeExpiring"`
}

// Recommendation is one scored recipe.
type Recommendation struct {
	Recipe   Recipe   `json:"recipe"`
	Score    float64  `json:"score"`
	Coverage float64  `json:"coverage"`
	Have     []string `json:"have"`
	Missing  []string `json:"missing"`
	Reasons  []string `json:"reasons"`
}

// Related is a recipe that uses a given ingredient, with how much of it the
// fridge already covers.
type Related struct {
	Recipe   Recipe   `json:"recipe"`
	Have     []string `json:"have"`
	Missing  []string `json:"missing"`
	Coverage float64  `json:"coverage"`
}

// onHand indexes in-fridge items by lower-cased label. For duplicate labels
// the soonest expiry wins; items without an expiry only mark presence.
type onHand map[string]*time.Time

func indexInventory(items []inventory.Item) onHand {
	out := onHand{}
	for _, item := range items {
		if !item.InFridge() {
			continue
		}
		key := validators.NormalizeLabel(item.Label)
		current, seen := out[key]
		if !seen || (item.ExpiresAt != nil && (current == nil || item.ExpiresAt.Before(*current))) {
			out[key] = item.ExpiresAt
		}
	}
	return out
}

func (h onHand) partition(ingredients []string) (have, missing []string) {
	have, missing = []string{}, []string{}
	for _, ing := range ingredients {
		if _, ok := h[validators.NormalizeLabel(ing)]; ok {
			have = append(have, ing)
		} else {
			missing = append(missing, ing)
		}
	}
	return have, missing
}

func coverage(have, ingredients int) float64 {
	return float64(have) / math.Max(1, float64(ingredients))
}

// expirationBonus scores matched items by urgency: +3 within 2 days, +2
// within 5, +1 otherwise.
func (h onHand) expirationBonus(have []string, now time.Time) float64 {
	bonus := 0.0
	for _, ing := range have {
		expiresAt := h[validators.NormalizeLabel(ing)]
		if expiresAt == nil {
			continue
		}
		switch daysLeft := clock.DaysBetween(now, *expiresAt); {
		case daysLeft <= 2:
			bonus += 3
		case daysLeft <= 5:
			bonus += 2
		default:
			bonus++
		}
	}
	return bonus
}

func macroDistance(a, b Macros) float64 {
	return math.Abs(a.Calories-b.Calories) +
		math.Abs(a.Protein-b.Protein) +
		math.Abs(a.Carbs-b.Carbs) +
		math.Abs(a.Fat-b.Fat)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Recommend scores every recipe against items at now, drops those below
// MinCoverage and sorts by score descending. Ties keep catalog order.
func (c *Catalog) Recommend(items []inventory.Item, req Request, now time.Time) ([]Recommendation, error) {
	if err := validators.Struct(&req); err != nil {
		return nil, err
	}
	hand := indexInventory(items)

	out := []Recommendation{}
	for _, r := range c.recipes {
		have, missing := hand.partition(r.Ingredients)
		cov := coverage(len(have), len(r.Ingredients))
		if cov < req.MinCoverage {
			continue
		}
		bonus := 0.0
		if req.PrioritizeExpiring {
			bonus = hand.expirationBonus(have, now)
		}
		base := cov*coverageWeight + bonus - float64(len(missing))*missingPenalty
		score := round2(base - macroDistanceScale*macroDistance(r.Macros, req.Target))

		reasons := []string{fmt.Sprintf("Have %d/%d ingredients", len(have), len(r.Ingredients))}
		if req.PrioritizeExpiring {
			reasons = append(reasons, "Prioritizes expiring items")
		} else {
			reasons = append(reasons, "Expiration not prioritized")
		}

		out = append(out, Recommendation{
			Recipe:   r.clone(),
			Score:    score,
			Coverage: cov,
			Have:     have,
			Missing:  missing,
			Reasons:  reasons,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Related lists recipes containing ingredient (case-insensitive) by coverage
// descending. Ties keep catalog order.
func (c *Catalog) Related(items []inventory.Item, ingredient string) []Related {
	want := validators.NormalizeLabel(ingredient)
	hand := indexInventory(items)

	out := []Related{}
	for _, r := range c.recipes {
		if !containsLabel(r.Ingredients, want) {
			continue
		}
		have, missing := hand.partition(r.Ingredients)
		out = append(out, Related{
			Recipe:   r.clone(),
			Have:     have,
			Missing:  missing,
			Coverage: coverage(len(have), len(r.Ingredients)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Coverage > out[j].Coverage })
	return out
}

func containsLabel(ingredients []string, want string) bool {
	for _, ing := range ingredients {
		if validators.NormalizeLabel(ing) == want {
			return true
		}
	}
	return false
}

type snapshotter interface {
	Snapshot(ctx context.Context) inventory.State
}

// Service runs the catalog against one consistent inventory snapshot.
type Service struct {
	catalog *Catalog
	store   snapshotter
	clock   clock.Clock
}

func NewService(catalog *Catalog, store snapshotter, clk clock.Clock) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("recipe catalog required")
	}
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Service{catalog: catalog, store: store, clock: clk}, nil
}

func (s *Service) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	return s.catalog.Recommend(s.store.Snapshot(ctx).Items, req, s.clock.Now())
}

func (s *Service) Related(ctx context.Context, ingredient string) []Related {
	return s.catalog.Related(s.store.Snapshot(ctx).Items, ingredient)
}

func (s *Service) Recipes() []Recipe {
	return s.catalog.Recipes()
}
