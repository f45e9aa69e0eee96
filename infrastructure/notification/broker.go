package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/contracts"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Publisher is satisfied by *messaging.RabbitMQ.
type Publisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

// TokenSource resolves the device tokens registered by a set of users.
type TokenSource interface {
	TokensFor(ctx context.Context, userIDs []string) ([]string, error)
}

type BrokerNotifier struct {
	publisher Publisher
	tokens    TokenSource
	limiter   *rate.Limiter
	clock     model.Clock
	metrics   metrics.Manager
	logger    *logger.Logger
}

// NewBrokerNotifier publishes room events enriched with the members' device
// tokens. perSecond <= 0 disables throttling.
func NewBrokerNotifier(
	publisher Publisher,
	tokens TokenSource,
	perSecond float64,
	burst int,
	clock model.Clock,
	metrics metrics.Manager,
	logger *logger.Logger,
) *BrokerNotifier {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &BrokerNotifier{
		publisher: publisher,
		tokens:    tokens,
		limiter:   rate.NewLimiter(limit, burst),
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

func (n *BrokerNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	event := newStartedEvent(members, roomID, n.clock.Now())
	return n.publish(ctx, contracts.EventRoomWork, firstOf(members), event)
}

func (n *BrokerNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	event := newExpiredEvent(room.ID, room.Title, room.Recipients(), n.clock.Now())
	return n.publish(ctx, contracts.EventRoomFinish, room.Owner, event)
}

func (n *BrokerNotifier) publish(ctx context.Context, routingKey, ownerID string, event RoomEvent) error {
	if len(event.Members) == 0 {
		return nil
	}

	tokens, err := n.tokens.TokensFor(ctx, event.Members)
	if err != nil {
		// publish without tokens, the push worker can resolve them later
		n.logger.Warn("failed to resolve device tokens",
			zap.String("room_id", event.RoomID),
			zap.Error(err),
		)
	}
	event.Tokens = tokens

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.metrics.IncrementCounter(ctx, "trio_notifications_total", "action", event.Action, "status", "throttled")
		return fmt.Errorf("notification throttled: %w", err)
	}

	if err := n.publisher.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		OwnerID: ownerID,
		Data:    data,
	}); err != nil {
		n.metrics.IncrementCounter(ctx, "trio_notifications_total", "action", event.Action, "status", "failed")
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	n.metrics.IncrementCounter(ctx, "trio_notifications_total", "action", event.Action, "status", "published")
	n.logger.Debug("room event published",
		zap.String("action", event.Action),
		zap.String("room_id", event.RoomID),
		zap.Int("tokens", len(tokens)),
	)
	return nil
}

func firstOf(members []string) string {
	if len(members) == 0 {
		return ""
	}
	return members[0]
}
