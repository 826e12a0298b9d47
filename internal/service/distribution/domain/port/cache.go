// internal/service/distribution/domain/port/cache.go
package port

import (
	"context"

	"promoflow/internal/service/distribution/domain"
)

// CouponCache 是按 (用户, 状态) 分区的优惠券缓存出站端口。
//
// 返回值约定：GetCachedCoupons 返回的是分区里的原始内容，可能包含
// 空标记记录。物理上空的分区（返回空切片）表示缓存未命中，调用方
// 必须回源 DB；只含空标记的分区表示“确认为空”，不允许再打到 DB。
type CouponCache interface {
	GetCachedCoupons(ctx context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error)

	// SaveEmptyCouponList 向每个给定状态分区写入空标记，抵御缓存穿透。
	SaveEmptyCouponList(ctx context.Context, userID int64, statuses []domain.CouponStatus) error

	// AddCouponsToCache 把一批券写入目标状态分区。
	// 目标为 USABLE 时是单纯的 upsert；目标为 USED/EXPIRED 时是一次
	// 迁移：先校验入参都在当前 USABLE 分区内（否则返回
	// domain.ErrCacheInconsistent，不做任何破坏性写入），然后以一组
	// pipeline 命令完成目标分区写入、USABLE 分区删除和两个分区的
	// TTL 重置。pipeline 只保证命令背靠背下发，不是事务。
	AddCouponsToCache(ctx context.Context, userID int64, coupons []*domain.Coupon, status domain.CouponStatus) error
}

// CouponCodePool 是预灌注券码池的出站端口。
type CouponCodePool interface {
	// AcquireCouponCode 从模板的券码池弹出一个码，池空时返回空串。
	// 弹出即永久移除；后续持久化失败时该码随之泄漏（接受的折衷）。
	AcquireCouponCode(ctx context.Context, templateID int64) (string, error)
}
