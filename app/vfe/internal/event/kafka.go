package event

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/pkg/mq/kafka"
	"github.com/lk2023060901/vfemart/pkg/serializer"
)

// BatchPublisher kafka.Producer 的发布能力
type BatchPublisher interface {
	PublishBatch(ctx context.Context, msgs []*kafka.Message) error
}

// Envelope Kafka 消息体
type Envelope struct {
	ID      int64           `codec:"id"`
	Type    model.EventType `codec:"type"`
	Height  uint64          `codec:"height"`
	TimeMs  int64           `codec:"time_ms"`
	Payload any             `codec:"payload"`
}

// KafkaSink 以 msgpack 编码发布到 Kafka，消息键为事件类型
type KafkaSink struct {
	producer BatchPublisher
}

// NewKafkaSink 创建 Kafka Sink
func NewKafkaSink(p BatchPublisher) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]*kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := serializer.Encode(Envelope{
			ID:      ev.ID,
			Type:    ev.Type,
			Height:  uint64(ev.Height),
			TimeMs:  ev.Time.UnixMilli(),
			Payload: ev.Payload,
		})
		if err != nil {
			return errors.Wrapf(err, "encode event %d", ev.ID)
		}
		msgs = append(msgs, &kafka.Message{
			Key:   []byte(ev.Type),
			Value: value,
			Headers: map[string]string{
				"event-id":     strconv.FormatInt(ev.ID, 10),
				"content-type": serializer.Msgpack{}.ContentType(),
			},
		})
	}
	return s.producer.PublishBatch(ctx, msgs)
}
