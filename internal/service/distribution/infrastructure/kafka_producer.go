// internal/service/distribution/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/pkg/mq"
	"promoflow/internal/service/distribution/domain"
)

// eventIDHeader 是每条对账消息携带的唯一事件 id，
// 用于生产、消费两侧的日志对账与重复投递排查。
const eventIDHeader = "event_id"

// ReconcileKafkaProducer 实现 port.ReconcileProducer。
// 消息以目标状态为 key 做分区散列，同一状态的事件保持分区内有序。
type ReconcileKafkaProducer struct {
	writer *kafka.Writer
}

func NewReconcileKafkaProducer(writer *kafka.Writer) *ReconcileKafkaProducer {
	return &ReconcileKafkaProducer{writer: writer}
}

func (p *ReconcileKafkaProducer) SendCouponStatusChange(ctx context.Context, msg *domain.CouponKafkaMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := []byte(strconv.Itoa(msg.Status))
	eventID := uuid.NewString()
	header := kafka.Header{Key: eventIDHeader, Value: []byte(eventID)}
	if err := mq.ProduceMessage(ctx, p.writer, key, payload, header); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("event_id", eventID).
			Int("status", msg.Status).
			Ints64("coupon_ids", msg.IDs).
			Msg("failed to produce coupon reconcile message")
		return err
	}
	logger.Ctx(ctx).Debug().
		Str("event_id", eventID).
		Int("status", msg.Status).
		Msg("coupon reconcile message produced")
	return nil
}

// Close 关闭底层的 Kafka writer。
func (p *ReconcileKafkaProducer) Close() error {
	return p.writer.Close()
}
