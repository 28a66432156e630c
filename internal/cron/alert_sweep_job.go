package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fridge-monitor/internal/alerts"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/angelmondragon/fridge-monitor/pkg/metrics"
)

const AlertSweepJobName = "alert-sweep"

type alertSource interface {
	Current(ctx context.Context) []alerts.Alert
}

type AlertSweepJobParams struct {
	Logger  *logger.Logger
	Alerts  alertSource
	Metrics *metrics.InventoryMetrics
}

// NewAlertSweepJob builds the job that classifies the inventory and reports
// every alert. Expired items log at warn level.
func NewAlertSweepJob(params AlertSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert source required")
	}
	return &alertSweepJob{
		logg:    params.Logger,
		alerts:  params.Alerts,
		metrics: params.Metrics,
	}, nil
}

type alertSweepJob struct {
	logg    *logger.Logger
	alerts  alertSource
	metrics *metrics.InventoryMetrics
}

func (j *alertSweepJob) Name() string { return AlertSweepJobName }

func (j *alertSweepJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	found := j.alerts.Current(ctx)
	counts := map[string]int{}
	for _, a := range found {
		counts[a.Type.String()]++
		j.metrics.IncAlert(a.Type.String())

		alertCtx := j.logg.WithFields(j.logg.WithItemID(ctx, a.ItemID), map[string]any{
			"alert_type": a.Type.String(),
			"label":      a.Label,
		})
		if a.Type == enums.AlertTypeExpired {
			j.logg.Warn(alertCtx, a.Message)
		} else {
			j.logg.Info(alertCtx, a.Message)
		}
	}

	summary := j.logg.WithFields(ctx, map[string]any{
		"alerts":     len(found),
		"shelf_life": counts[enums.AlertTypeShelfLife.String()],
		"one_day":    counts[enums.AlertTypeOneDay.String()],
		"expired":    counts[enums.AlertTypeExpired.String()],
	})
	j.logg.Info(summary, "alert sweep complete")
	return nil
}
