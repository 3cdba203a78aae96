package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects for evaluation lifecycle events.
const (
	SubjectEvaluationCreated = "evalio.evaluations.created"
	SubjectEvaluationUpdated = "evalio.evaluations.updated"
	SubjectEvaluationDeleted = "evalio.evaluations.deleted"
)

// EvaluationEvent is the message published on evaluation lifecycle changes.
type EvaluationEvent struct {
	EvaluationID uint      `json:"evaluation_id"`
	FormID       uint      `json:"form_id"`
	ProfessorID  uint      `json:"professor_id"`
	SentAt       time.Time `json:"sent_at"`
}

// EventPublisher emits evaluation lifecycle events.
type EventPublisher interface {
	PublishEvaluation(subject string, event EvaluationEvent)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher wraps a NATS connection. A nil connection disables
// publishing, so events stay best-effort in environments without a broker.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) PublishEvaluation(subject string, event EvaluationEvent) {
	if p.conn == nil {
		return
	}

	event.SentAt = time.Now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("marshal evaluation event")
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("publish evaluation event")
	}
}
