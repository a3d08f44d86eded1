package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/events"
)

// StatsInvalidator drops cached dashboard aggregates.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProfileEventWorker writes an audit trail of profile changes and keeps the dashboard
// cache in step with registrations and resume uploads.
type ProfileEventWorker struct {
	logger    *zap.Logger
	dashboard StatsInvalidator
}

// StartProfileEventWorker registers the worker's handlers on dispatcher.
func StartProfileEventWorker(dispatcher events.Dispatcher, dashboard StatsInvalidator, logger *zap.Logger) *ProfileEventWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ProfileEventWorker{logger: logger.Named("profile-audit"), dashboard: dashboard}
	if dispatcher == nil {
		return w
	}
	dispatcher.Subscribe(events.EventProfileRegistered, w.handleRegistered)
	dispatcher.Subscribe(events.EventProfileUpdated, w.handleUpdated)
	dispatcher.Subscribe(events.EventDetailsMerged, w.handleDetailsMerged)
	return w
}

func (w *ProfileEventWorker) handleRegistered(ctx context.Context, event events.Event) error {
	w.audit(event)
	if w.dashboard != nil {
		w.dashboard.Invalidate(ctx)
	}
	return nil
}

func (w *ProfileEventWorker) handleUpdated(_ context.Context, event events.Event) error {
	w.audit(event)
	return nil
}

func (w *ProfileEventWorker) handleDetailsMerged(ctx context.Context, event events.Event) error {
	w.audit(event)
	payload, ok := event.Payload.(events.DetailsMergedPayload)
	if ok && payload.Section == domain.SectionResume && w.dashboard != nil {
		w.dashboard.Invalidate(ctx)
	}
	return nil
}

func (w *ProfileEventWorker) audit(event events.Event) {
	w.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("owner_id", event.OwnerID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
}
