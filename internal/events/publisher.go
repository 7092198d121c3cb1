// Package events relays committed lesson_events rows to Kafka.
package events

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/repository"
	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublisherConfig struct {
	Brokers   string
	Topic     string
	PollEvery time.Duration
	BatchSize int
}

type Publisher struct {
	store     repository.Store
	logger    *slog.Logger
	brokers   []string
	topic     string
	pollEvery time.Duration
	batchSize int
	newWriter func() MessageWriter
}

func NewPublisher(store repository.Store, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	p := &Publisher{
		store:     store,
		logger:    logger,
		brokers:   SplitBrokers(cfg.Brokers),
		topic:     cfg.Topic,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
	p.newWriter = func() MessageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  p.topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

func SplitBrokers(value string) []string {
	brokers := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if broker := strings.TrimSpace(part); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Run polls the outbox until ctx is done. Without brokers it returns at once.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := p.newWriter()
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// PublishBatch sends one batch and marks it published in the same
// transaction that claimed it. A failed write leaves the rows for the next
// poll.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	published := 0
	err := p.store.WithinTx(ctx, func(tx repository.Store) error {
		records, err := tx.Events().ClaimUnpublished(ctx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, kafka.Message{
				Key:   []byte(r.CoachUID),
				Value: r.Payload,
				Headers: []kafka.Header{
					{Key: "event_id", Value: []byte(strconv.FormatInt(r.ID, 10))},
					{Key: "event_type", Value: []byte(r.Type)},
					{Key: "lesson_id", Value: []byte(strconv.FormatInt(r.LessonID, 10))},
					{Key: "student_uid", Value: []byte(r.StudentUID)},
				},
				Time: r.CreatedAt,
			})
			ids = append(ids, r.ID)
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := tx.Events().MarkPublished(ctx, ids); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
