package query

import (
	"context"
	"log/slog"

	applog "branchboard/internal/log"
	"branchboard/internal/store"
)

// Dispatcher is the part of the store the refresher writes through.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd store.Command) error
}

// StatsRefresher keeps the cached dashboard stats in line with the entities.
// Subscribe it to the store it dispatches into.
type StatsRefresher struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewStatsRefresher(d Dispatcher, logger *slog.Logger) *StatsRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsRefresher{dispatcher: d, logger: logger}
}

// SnapshotChanged dispatches UpdateDashboardStats when the cached stats are
// stale. The follow-up notification finds them current, so it stops there.
func (r *StatsRefresher) SnapshotChanged(ctx context.Context, version uint64, s store.Snapshot) {
	stats := DashboardStats(s)
	if StatsEqual(stats, s.DashboardStats) {
		return
	}
	if err := r.dispatcher.Dispatch(ctx, store.UpdateDashboardStats{Stats: stats}); err != nil {
		r.logger.WarnContext(ctx, "Failed to refresh dashboard stats",
			applog.FieldVersion, version, applog.FieldError, err)
	}
}
