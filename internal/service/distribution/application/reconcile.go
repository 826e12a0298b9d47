// internal/service/distribution/application/reconcile.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/pkg/metrics"
	"promoflow/internal/service/distribution/domain"
)

// ReconcileService 把 cache 侧已生效的状态变更同步到 DB。
// 它是 coupon 表 status 字段唯一的写入方，完全异步于产生事件的请求。
type ReconcileService struct {
	couponRepo domain.CouponRepository
	tracer     trace.Tracer
}

func NewReconcileService(couponRepo domain.CouponRepository, tracer trace.Tracer) *ReconcileService {
	return &ReconcileService{
		couponRepo: couponRepo,
		tracer:     tracer,
	}
}

// Process 消费一条状态变更事件。
//
// 处理是幂等的：重复投递只会把同一批券再次置为同一个状态。
// 查出的记录数与事件里的 id 数不一致时，说明数据已经脱节，
// 此时丢弃整条事件（不做部分写入，不在这里重试——at-least-once
// 的重投递就是重试机制），只递增告警计数并报错日志，绝不静默。
func (s *ReconcileService) Process(ctx context.Context, msg *domain.CouponKafkaMessage) error {
	ctx, span := s.tracer.Start(ctx, "app.ReconcileCouponStatus", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.Int("coupon.status", msg.Status),
		attribute.Int("coupon.count", len(msg.IDs)),
	)

	status, err := domain.StatusOf(msg.Status)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if status == domain.StatusUsable {
		// 新发放的券在领取时已经直接落库，无需对账
		return nil
	}

	coupons, err := s.couponRepo.FindByIDs(ctx, msg.IDs)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(coupons) != len(msg.IDs) {
		metrics.ReconcileDropped.Inc()
		logger.Ctx(ctx).Error().
			Int("expected", len(msg.IDs)).
			Int("loaded", len(coupons)).
			Ints64("coupon_ids", msg.IDs).
			Msg("reconcile dropped: durable records do not match message ids")
		span.RecordError(domain.ErrReconcileMismatch)
		return domain.ErrReconcileMismatch
	}

	for _, c := range coupons {
		c.Status = status
	}
	if _, err := s.couponRepo.SaveAll(ctx, coupons); err != nil {
		span.RecordError(err)
		return err
	}

	metrics.ReconcileApplied.WithLabelValues(status.String()).Add(float64(len(coupons)))
	logger.Ctx(ctx).Info().
		Str("status", status.String()).
		Int("count", len(coupons)).
		Msg("coupon status reconciled to durable store")
	return nil
}
