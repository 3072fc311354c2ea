package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/filedrop-io/filedrop/pkg/kafka"
	"github.com/filedrop-io/filedrop/pkg/logger"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// Topics for auth domain events.
const (
	TopicUserRegistered = "filedrop.user.registered"
	TopicUserSignedIn   = "filedrop.user.signed_in"
)

// Event types carried inside the envelope.
const (
	TypeUserRegistered = "user.registered"
	TypeUserSignedIn   = "user.signed_in"
)

const source = "filedrop"

// Publisher emits auth domain events. Publishing is best-effort: a broker
// failure is logged and never fails the operation that produced the event.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher creates an event publisher over the given producer. A nil
// producer disables publishing, for environments without a broker.
func NewPublisher(producer *kafka.Producer, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

type userPayload struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Role     string `json:"role"`
}

type signInPayload struct {
	userPayload
	IP        string    `json:"ip"`
	Device    string    `json:"device"`
	SignedIn  time.Time `json:"signed_in_at"`
}

// UserRegistered publishes a registration event.
func (p *Publisher) UserRegistered(ctx context.Context, u *domain.User) {
	p.publish(ctx, TopicUserRegistered, TypeUserRegistered, u.ID, userPayload{
		UserID:   u.ID,
		Email:    u.Email,
		Provider: u.Provider,
		Role:     u.Role,
	})
}

// UserSignedIn publishes a sign-in event alongside the activity record.
func (p *Publisher) UserSignedIn(ctx context.Context, u *domain.User, ip, device string) {
	p.publish(ctx, TopicUserSignedIn, TypeUserSignedIn, u.ID, signInPayload{
		userPayload: userPayload{
			UserID:   u.ID,
			Email:    u.Email,
			Provider: u.Provider,
			Role:     u.Role,
		},
		IP:       ip,
		Device:   device,
		SignedIn: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID string, payload any) {
	if p.producer == nil {
		return
	}

	evt, err := kafka.NewEvent(eventType, aggregateID, "user", source, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
