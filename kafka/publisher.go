package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/warehouse-erp/pkg/logger"
)

// EventPublisher publishes domain events after their transaction commits
type EventPublisher interface {
	PublishStockMovementRecorded(ctx context.Context, event StockMovementRecordedEvent) error
	PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChangedEvent) error
}

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer, now: time.Now}
}

func (p *Publisher) stamp(m *Metadata, eventType string) {
	if m.EventID == "" {
		m.EventID = uuid.NewString()
	}
	m.EventType = eventType
	if m.Timestamp.IsZero() {
		m.Timestamp = p.now().UTC()
	}
}

// PublishStockMovementRecorded publishes a movement, keyed by SKU and warehouse
// so all changes of one stock level stay ordered within a partition
func (p *Publisher) PublishStockMovementRecorded(ctx context.Context, event StockMovementRecordedEvent) error {
	p.stamp(&event.Metadata, EventTypeStockMovementRecorded)
	key := fmt.Sprintf("%s|%d", event.SKUCode, event.WarehouseID)
	return p.publish(ctx, TopicStockMovements, key, event.Metadata, event,
		attribute.String("sku.code", event.SKUCode),
		attribute.Int64("warehouse.id", int64(event.WarehouseID)),
		attribute.String("movement.type", event.Type),
	)
}

// PublishOrderConfirmed publishes an order confirmation, keyed by order id
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error {
	p.stamp(&event.Metadata, EventTypeOrderConfirmed)
	return p.publish(ctx, TopicOrders, fmt.Sprintf("order_%d", event.OrderID), event.Metadata, event,
		attribute.Int64("order.id", int64(event.OrderID)),
		attribute.String("order.number", event.OrderNumber),
	)
}

// PublishOrderStatusChanged publishes a status transition, keyed by order id
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, event OrderStatusChangedEvent) error {
	p.stamp(&event.Metadata, EventTypeOrderStatusChanged)
	return p.publish(ctx, TopicOrders, fmt.Sprintf("order_%d", event.OrderID), event.Metadata, event,
		attribute.Int64("order.id", int64(event.OrderID)),
		attribute.String("order.status.from", event.From),
		attribute.String("order.status.to", event.To),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, meta Metadata, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+meta.EventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", meta.EventType),
			attribute.String("event.id", meta.EventID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(meta.EventType)},
		{Key: []byte("event_id"), Value: []byte(meta.EventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)

	logger.Debug(ctx).
		Str("event_id", meta.EventID).
		Str("event_type", meta.EventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every event; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) PublishStockMovementRecorded(context.Context, StockMovementRecordedEvent) error {
	return nil
}

func (NopPublisher) PublishOrderConfirmed(context.Context, OrderConfirmedEvent) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, OrderStatusChangedEvent) error {
	return nil
}
