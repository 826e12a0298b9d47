// internal/service/distribution/domain/coupon.go
package domain

import "time"

// emptyMarkerID 是空标记的保留 id。
// 该标记写入缓存分区后表示“查过了，确实没有”，用来抵御缓存穿透。
const emptyMarkerID int64 = -1

// Coupon 代表一个用户持有的一张具体的优惠券实例。
type Coupon struct {
	ID         int64        `json:"id"`
	TemplateID int64        `json:"templateId"`
	UserID     int64        `json:"userId"`
	Code       string       `json:"code"`
	Status     CouponStatus `json:"status"`
	AssignTime time.Time    `json:"assignTime"`

	// Template 是从模板微服务取回的快照，读取路径上按需填充，
	// 不落库（缓存中的 JSON 会带上它，因为缓存本身就是可丢弃的投影）。
	Template *TemplateSDK `json:"template,omitempty"`
}

// NewCoupon 创建一张新发放的优惠券，初始状态恒为 USABLE。
func NewCoupon(templateID, userID int64, code string) *Coupon {
	return &Coupon{
		TemplateID: templateID,
		UserID:     userID,
		Code:       code,
		Status:     StatusUsable,
		AssignTime: time.Now(),
	}
}

// NewEmptyMarker 返回空标记券。它不是一张真实的券，
// 只在缓存层作为“确认为空”的占位记录存在。
func NewEmptyMarker() *Coupon {
	return &Coupon{ID: emptyMarkerID, Status: StatusUsable}
}

// IsEmptyMarker 判断是否为空标记。
func (c *Coupon) IsEmptyMarker() bool {
	return c.ID == emptyMarkerID
}

// IsExpiredAt 判断券对应模板的截止时间是否已过。
// 未填充模板快照时视为未过期，由下一次完整读取再做判定。
func (c *Coupon) IsExpiredAt(now time.Time) bool {
	if c.Template == nil {
		return false
	}
	return c.Template.IsExpiredAt(now)
}

// CouponClassify 是按当前时刻对一批券的分类结果。
type CouponClassify struct {
	Usable  []*Coupon
	Expired []*Coupon
}

// Classify 把一批 USABLE 状态的券按模板截止时间分为仍可用与已过期两组。
// 过期是惰性发现的：没有后台轮询，读到谁就判谁。
func Classify(coupons []*Coupon, now time.Time) CouponClassify {
	var result CouponClassify
	for _, c := range coupons {
		if c.IsExpiredAt(now) {
			result.Expired = append(result.Expired, c)
		} else {
			result.Usable = append(result.Usable, c)
		}
	}
	return result
}

// FilterMarkers 去掉批量数据中的空标记，返回真实的券。
func FilterMarkers(coupons []*Coupon) []*Coupon {
	real := make([]*Coupon, 0, len(coupons))
	for _, c := range coupons {
		if !c.IsEmptyMarker() {
			real = append(real, c)
		}
	}
	return real
}

// IDs 提取一批券的主键。
func IDs(coupons []*Coupon) []int64 {
	ids := make([]int64, 0, len(coupons))
	for _, c := range coupons {
		ids = append(ids, c.ID)
	}
	return ids
}
