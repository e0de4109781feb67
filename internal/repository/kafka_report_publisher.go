package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// KafkaReportPublisher implements ReportPublisher for Kafka, keyed by symbol.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaReportPublisher creates Kafka publisher.
func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) repository.ReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) Publish(ctx context.Context, r *models.AnalysisReport) error {
	var headers []pkgkafka.Header
	if id := pkgkafka.RequestIDFrom(ctx); id != "" {
		headers = append(headers, pkgkafka.Header{Key: pkgkafka.RequestIDHeader, Value: id})
	}
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r, headers...)
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops reports; used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.AnalysisReport) error { return nil }
func (NopPublisher) Close() error { return nil }
