// internal/service/distribution/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/pkg/mq"
	"promoflow/internal/service/distribution/application"
	"promoflow/internal/service/distribution/domain"
)

// ReconcileConsumerAdapter 是一个驱动适配器：
// 监听对账 topic，把消息交给 ReconcileService 处理。
type ReconcileConsumerAdapter struct {
	reader  *kafka.Reader
	svc     *application.ReconcileService
	wg      sync.WaitGroup
	stopped bool
}

func NewReconcileConsumerAdapter(reader *kafka.Reader, svc *application.ReconcileService) *ReconcileConsumerAdapter {
	return &ReconcileConsumerAdapter{
		reader: reader,
		svc:    svc,
	}
}

// Start 开始监听对账 topic。这是一个长期运行的方法。
func (a *ReconcileConsumerAdapter) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Info().
			Str("topic", a.reader.Config().Topic).
			Msg("reconcile consumer started")
		for {
			if a.stopped {
				return
			}
			// 用 FetchMessage 而不是 ReadMessage，提交时机由我们控制
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("reconcile consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not fetch reconcile message, retrying")
				time.Sleep(time.Second) // 避免快速失败循环
				continue
			}

			// 瞬时故障（DB 不可达等）时停留在当前消息上重试：
			// 提交任何更靠后的 offset 都会连带提交这一条，事件就丢了
			for !a.processMessage(ctx, msg) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				if a.stopped {
					return
				}
			}

			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to commit reconcile message")
			}
		}
	}()
}

// Stop 优雅地停止消费者。
func (a *ReconcileConsumerAdapter) Stop() {
	a.stopped = true
	a.reader.Close()
	a.wg.Wait()
}

// processMessage 重建追踪上下文，反序列化消息并调用对账服务。
// 返回值表示这条消息的 offset 是否可以提交：处理成功或事件本身
// 不可处理（JSON 损坏、未知状态、数量不匹配）时提交；瞬时故障
// 返回 false，留待重试。
func (a *ReconcileConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) bool {
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)
	eventID := carrier.Get(eventIDHeader)

	var event domain.CouponKafkaMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("event_id", eventID).
			Str("value", string(msg.Value)).
			Msg("malformed reconcile message, skipping")
		return true
	}

	if err := a.svc.Process(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrReconcileMismatch) {
			// 数量不匹配时事件已被丢弃并计数，照常提交 offset，
			// 避免同一条坏消息永远阻塞分区
			return true
		}
		if errors.Is(err, domain.ErrUnknownStatus) {
			logger.Ctx(ctx).Error().Err(err).
				Str("event_id", eventID).
				Msg("unprocessable reconcile message, skipping")
			return true
		}
		// DB 不可达之类的瞬时故障：不提交，事件必须重试
		logger.Ctx(ctx).Error().Err(err).
			Str("event_id", eventID).
			Int("status", event.Status).
			Msg("transient failure processing reconcile message, will retry")
		return false
	}
	return true
}
