// internal/service/distribution/infrastructure/mapper.go
package infrastructure

import (
	"promoflow/internal/service/distribution/domain"
)

// toDomainCoupon 将数据库模型转换为领域模型。
// 模板快照不落库，转换结果中 Template 恒为 nil，由读取路径填充。
func toDomainCoupon(model *CouponModel) *domain.Coupon {
	if model == nil {
		return nil
	}
	return &domain.Coupon{
		ID:         model.ID,
		TemplateID: model.TemplateID,
		UserID:     model.UserID,
		Code:       model.CouponCode,
		Status:     domain.CouponStatus(model.Status),
		AssignTime: model.AssignTime,
	}
}

// fromDomainCoupon 将领域模型转换为数据库模型。
func fromDomainCoupon(c *domain.Coupon) *CouponModel {
	if c == nil {
		return nil
	}
	return &CouponModel{
		ID:         c.ID,
		TemplateID: c.TemplateID,
		UserID:     c.UserID,
		CouponCode: c.Code,
		Status:     int(c.Status),
		AssignTime: c.AssignTime,
	}
}
