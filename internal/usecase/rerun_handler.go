package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	domrepo "RegimeShift/internal/domain/repository"
	applogger "RegimeShift/pkg/logger"
	pkgkafka "RegimeShift/pkg/kafka"
)

// RerunCommand is the message schema of the rerun topic. Both fields are optional.
type RerunCommand struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// KafkaRerunHandler consumes rerun commands and triggers a fresh analysis run.
type KafkaRerunHandler struct {
	topic   string
	svc     *AnalysisService
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewKafkaRerunHandler(topic string, svc *AnalysisService, metrics domrepo.Metrics, l *applogger.Logger) *KafkaRerunHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaRerunHandler{topic: topic, svc: svc, metrics: metrics, l: l}
}

func (h *KafkaRerunHandler) Topic() string { return h.topic }

// Handle only fails on malformed messages. A failed run is published as a
// snapshot, so redelivering the command would not help.
func (h *KafkaRerunHandler) Handle(ctx context.Context, b []byte) error {
	var cmd RerunCommand
	if len(b) > 0 {
		if err := json.Unmarshal(b, &cmd); err != nil {
			if h.metrics != nil {
				h.metrics.RecordError("consumer_unmarshal")
			}
			return fmt.Errorf("decode rerun command: %w", err)
		}
	}
	snap, err := h.svc.Rerun(ctx, TriggerKafka)
	if err != nil {
		return err
	}
	h.l.Info("rerun command handled",
		applogger.String("request_id", cmd.RequestID),
		applogger.String("reason", cmd.Reason),
		applogger.String("run_id", snap.RunID),
		applogger.String("state", string(snap.State)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRerunHandler)(nil)
