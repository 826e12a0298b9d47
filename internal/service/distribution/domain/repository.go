// internal/service/distribution/domain/repository.go
package domain

import "context"

// CouponRepository 定义了优惠券在系统记录源（DB）上的持久化接口。
// 它位于领域层，但由基础设施层实现。
type CouponRepository interface {
	// FindByUserAndStatus 查询某用户在某状态下的全部券。
	FindByUserAndStatus(ctx context.Context, userID int64, status CouponStatus) ([]*Coupon, error)

	// FindByIDs 按主键批量查询。
	FindByIDs(ctx context.Context, ids []int64) ([]*Coupon, error)

	// Save 持久化一张新券并回填生成的主键。
	Save(ctx context.Context, coupon *Coupon) (*Coupon, error)

	// SaveAll 批量更新一批券（对账路径使用）。
	SaveAll(ctx context.Context, coupons []*Coupon) ([]*Coupon, error)
}
