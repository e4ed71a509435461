package repository

import (
	"context"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/domain/repository"
	pkgkafka "RegimeShift/pkg/kafka"
)

// runEvent is the wire form of a finished run on the results topic.
type runEvent struct {
	RunID           string  `json:"run_id"`
	Trigger         string  `json:"trigger"`
	Engine          string  `json:"engine"`
	State           string  `json:"state"`
	StartedAt       string  `json:"started_at"`
	CompletedAt     string  `json:"completed_at"`
	Digest          string  `json:"digest"`
	Tau             int     `json:"tau"`
	ChangePointDate string  `json:"change_point_date,omitempty"`
	Mu1Post         float64 `json:"mu_1_post"`
	Mu2Post         float64 `json:"mu_2_post"`
	Sigma1Post      float64 `json:"sigma_1_post"`
	Sigma2Post      float64 `json:"sigma_2_post"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// KafkaRunPublisher publishes finished runs keyed by run id.
type KafkaRunPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRunPublisher(producer *pkgkafka.Producer, topic string) repository.RunPublisher {
	return &KafkaRunPublisher{producer: producer, topic: topic}
}

func (p *KafkaRunPublisher) PublishRun(ctx context.Context, r models.RunRecord) error {
	ev := runEvent{
		RunID:           r.RunID,
		Trigger:         r.Trigger,
		Engine:          r.Engine,
		State:           string(r.State),
		StartedAt:       r.StartedAt.UTC().Format(time.RFC3339Nano),
		CompletedAt:     r.CompletedAt.UTC().Format(time.RFC3339Nano),
		Digest:          r.Digest,
		Tau:             r.Tau,
		ChangePointDate: r.ChangePointDate,
		Mu1Post:         r.Mu1,
		Mu2Post:         r.Mu2,
		Sigma1Post:      r.Sigma1,
		Sigma2Post:      r.Sigma2,
		ErrorKind:       r.ErrorKind,
		Error:           r.ErrorMessage,
	}
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(r.RunID),
		Value:   ev,
		Headers: map[string]string{pkgkafka.TraceHeader: r.RunID},
	}})
}

// Close is a no-op; the producer is owned by the caller.
func (p *KafkaRunPublisher) Close() error { return nil }
