package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/tienda-club/internal/application/ports"
)

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = (*LogPublisher)(nil)
)

// messageWriter subconjunto de kafka.Writer usado por el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de dominio en un tópico. La clave es el AggregateID,
// así los eventos de una misma orden o pago conservan el orden dentro de la partición.
type KafkaPublisher struct {
	writer messageWriter
}

// batchTimeout espera máxima de un lote; Publish es síncrono y corre dentro del request.
const batchTimeout = 5 * time.Millisecond

// NewKafkaPublisher construye el productor.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: newWriter(brokers, topic)}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		BatchSize:              1,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

// Publish serializa el evento en JSON y lo escribe.
func (p *KafkaPublisher) Publish(ctx context.Context, evt ports.DomainEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafka: serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.AggregateID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: escribir evento %s: %w", evt.Type, err)
	}
	return nil
}

// Close cierra el productor.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher publica en el log (sin brokers configurados).
type LogPublisher struct{}

// NewLogPublisher construye el publicador de log.
func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

// Publish registra el evento en nivel info.
func (LogPublisher) Publish(_ context.Context, evt ports.DomainEvent) error {
	log.Info().
		Str("event", evt.Type).
		Str("aggregate_id", evt.AggregateID).
		Interface("data", evt.Data).
		Msg("evento de dominio")
	return nil
}
