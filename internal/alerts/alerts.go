package alerts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
)

const (
	shelfLifeLow  = 0.66
	shelfLifeHigh = 0.75
	oneDayWindow  = 1.1
)

// Alert flags one in-fridge item. An item may carry several alerts at once.
type Alert struct {
	Type    enums.AlertType `json:"type"`
	Message string          `json:"message"`
	ItemID  string          `json:"itemId"`
	Label   string          `json:"label"`
}

// Classify evaluates every in-fridge item with an expiry against now. Alerts
// follow item order; within one item they are shelf_life, one_day, expired.
func Classify(items []inventory.Item, now time.Time) []Alert {
	out := []Alert{}
	for _, item := range items {
		if !item.InFridge() || item.ExpiresAt == nil {
			continue
		}
		expiresAt := *item.ExpiresAt
		total := expiresAt.Sub(item.CreatedAt)
		daysLeft := clock.DaysBetween(now, expiresAt)

		if total > 0 {
			elapsed := float64(now.Sub(item.CreatedAt)) / float64(total)
			if elapsed >= shelfLifeLow && elapsed <= shelfLifeHigh {
				out = append(out, newAlert(item, enums.AlertTypeShelfLife,
					fmt.Sprintf("%s is ~%d%% through shelf life", item.Label, int(math.Round(elapsed*100)))))
			}
		}
		if daysLeft >= 0 && daysLeft <= oneDayWindow {
			out = append(out, newAlert(item, enums.AlertTypeOneDay, item.Label+" expires in ~1 day"))
		}
		if daysLeft < 0 {
			out = append(out, newAlert(item, enums.AlertTypeExpired, item.Label+" has expired"))
		}
	}
	return out
}

func newAlert(item inventory.Item, alertType enums.AlertType, message string) Alert {
	return Alert{Type: alertType, Message: message, ItemID: item.ID, Label: item.Label}
}

type snapshotter interface {
	Snapshot(ctx context.Context) inventory.State
}

// Service classifies the current inventory snapshot.
type Service struct {
	store snapshotter
	clock clock.Clock
}

func NewService(store snapshotter, clk clock.Clock) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Service{store: store, clock: clk}, nil
}

// Current returns the alerts for the inventory as it is right now.
func (s *Service) Current(ctx context.Context) []Alert {
	return Classify(s.store.Snapshot(ctx).Items, s.clock.Now())
}
