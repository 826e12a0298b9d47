// internal/service/distribution/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// CouponModel 对应数据库中的 coupon 表。
// status 只由对账消费者写入，券码在模板维度唯一。
type CouponModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	TemplateID int64     `gorm:"column:template_id;index:idx_template_user"`
	UserID     int64     `gorm:"column:user_id;index:idx_template_user;index:idx_user_status"`
	CouponCode string    `gorm:"column:coupon_code;uniqueIndex"`
	Status     int       `gorm:"column:status;type:tinyint;index:idx_user_status"`
	AssignTime time.Time `gorm:"column:assign_time"`
}

// TableName 指定 GORM 应该使用的表名
func (CouponModel) TableName() string {
	return "coupon"
}
