// internal/service/distribution/domain/port/reconcile.go
package port

import (
	"context"

	"promoflow/internal/service/distribution/domain"
)

// ReconcileProducer 是对账事件的出站端口。
// 发送是 fire-and-forget 语义的起点：调用方不等待 DB 同步完成，
// 通道本身提供持久化与 at-least-once 投递。
type ReconcileProducer interface {
	SendCouponStatusChange(ctx context.Context, msg *domain.CouponKafkaMessage) error
}
