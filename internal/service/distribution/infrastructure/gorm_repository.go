// internal/service/distribution/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"promoflow/internal/service/distribution/domain"
)

// GormCouponRepository 是 domain.CouponRepository 的 GORM 实现。
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository 创建一个新的 GORM 仓储实例。
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByUserAndStatus 查询某用户在某状态下的全部券。
func (r *GormCouponRepository) FindByUserAndStatus(ctx context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	var models []*CouponModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, int(status)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	coupons := make([]*domain.Coupon, len(models))
	for i, m := range models {
		coupons[i] = toDomainCoupon(m)
	}
	return coupons, nil
}

// FindByIDs 按主键批量查询。
func (r *GormCouponRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*CouponModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	coupons := make([]*domain.Coupon, len(models))
	for i, m := range models {
		coupons[i] = toDomainCoupon(m)
	}
	return coupons, nil
}

// Save 持久化一张新券，并把 DB 生成的主键回填到领域对象。
func (r *GormCouponRepository) Save(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	model := fromDomainCoupon(coupon)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	coupon.ID = model.ID
	return coupon, nil
}

// SaveAll 批量更新一批券。对账路径用它把状态变更一次性落库。
func (r *GormCouponRepository) SaveAll(ctx context.Context, coupons []*domain.Coupon) ([]*domain.Coupon, error) {
	if len(coupons) == 0 {
		return coupons, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range coupons {
			err := tx.Model(&CouponModel{}).
				Where("id = ?", c.ID).
				Update("status", int(c.Status)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coupons, nil
}
