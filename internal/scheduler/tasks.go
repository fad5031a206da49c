package scheduler

import (
	"context"
	"time"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
	"github.com/safarinest/hotel-booking-backend/internal/common/metrics"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
	"github.com/safarinest/hotel-booking-backend/internal/service/mpesa"
	"github.com/safarinest/hotel-booking-backend/internal/service/room"
)

const (
	reconcileBatchSize   = 100
	activityLogRetention = 90 * 24 * time.Hour
)

// TaskHandler holds the services the background jobs drive.
type TaskHandler struct {
	mpesaSvc    *mpesa.Service
	roomSvc     *room.Service
	activitySvc *activity.Service
	metrics     *metrics.Metrics
}

// NewTaskHandler creates the task handler.
func NewTaskHandler(
	mpesaSvc *mpesa.Service,
	roomSvc *room.Service,
	activitySvc *activity.Service,
) *TaskHandler {
	return &TaskHandler{
		mpesaSvc:    mpesaSvc,
		roomSvc:     roomSvc,
		activitySvc: activitySvc,
		metrics:     metrics.GetMetrics(),
	}
}

// Register wires the standard tasks onto the scheduler with intervals
// from config.
func (h *TaskHandler) Register(s *Scheduler, cfg *config.PaymentConfig) {
	reconcileEvery := time.Duration(cfg.ReconcileInterval) * time.Minute
	if reconcileEvery <= 0 {
		reconcileEvery = 5 * time.Minute
	}
	s.AddTask("reconcile-stale-payments", reconcileEvery, h.ReconcileStalePayments)
	s.AddTask("refresh-occupancy-metric", time.Minute, h.RefreshOccupancyMetric)
	s.AddTask("purge-old-activity-logs", 24*time.Hour, h.PurgeOldActivityLogs)
}

// ReconcileStalePayments settles pending mobile-money payments the
// gateway never called back about.
func (h *TaskHandler) ReconcileStalePayments(ctx context.Context) error {
	settled, err := h.mpesaSvc.ReconcileStale(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}
	if settled > 0 {
		logger.Info("reconciled stale payments", logger.Int("settled", settled))
	}
	return nil
}

// RefreshOccupancyMetric republishes the occupied-room gauge.
func (h *TaskHandler) RefreshOccupancyMetric(ctx context.Context) error {
	count, err := h.roomSvc.CountOccupied(ctx)
	if err != nil {
		return err
	}
	h.metrics.SetOccupiedRooms(float64(count))
	return nil
}

// PurgeOldActivityLogs enforces the activity log retention window.
func (h *TaskHandler) PurgeOldActivityLogs(ctx context.Context) error {
	deleted, err := h.activitySvc.Purge(ctx, time.Now().Add(-activityLogRetention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.Info("purged old activity logs", logger.Int64("deleted", deleted))
	}
	return nil
}
