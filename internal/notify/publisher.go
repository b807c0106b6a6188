package notify

import (
	"context"
	"log/slog"

	applog "branchboard/internal/log"
	"branchboard/internal/store"
)

// MessagePublisher sends an encoded event. *Client implements it.
type MessagePublisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Publisher turns store commits into SnapshotChanged events. Failures are
// logged and never reach the dispatcher.
type Publisher struct {
	publisher MessagePublisher
	logger    *slog.Logger
}

func NewPublisher(p MessagePublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default().With(applog.FieldComponent, applog.ComponentNotify)
	}
	return &Publisher{publisher: p, logger: logger}
}

func (p *Publisher) SnapshotChanged(ctx context.Context, version uint64, s store.Snapshot) {
	if p.publisher == nil {
		p.logger.WarnContext(ctx, "AMQP client not available, skipping snapshot event")
		return
	}

	body, err := NewSnapshotChangedMessage(version, s).ToJSON()
	if err != nil {
		applog.LogError(ctx, p.logger, "Failed to encode snapshot event", err, applog.OpPublish, nil)
		return
	}

	if err := p.publisher.Publish(ctx, body); err != nil {
		fields := applog.NewFields()
		fields[applog.FieldVersion] = version
		applog.LogError(ctx, p.logger, "Failed to publish snapshot event", err, applog.OpPublish, fields)
		return
	}

	p.logger.DebugContext(ctx, "Published snapshot event", applog.FieldVersion, version)
}

var _ store.Listener = (*Publisher)(nil)
