// internal/service/distribution/domain/status.go
package domain

import "fmt"

// CouponStatus 定义了优惠券的生命周期状态。
// 合法流转只有两条：USABLE -> USED（结算核销）、USABLE -> EXPIRED（读取时惰性发现）。
// USED 与 EXPIRED 均为终态。
type CouponStatus int

const (
	StatusUsable  CouponStatus = 1 // 可用
	StatusUsed    CouponStatus = 2 // 已使用
	StatusExpired CouponStatus = 3 // 已过期
)

// AllStatuses 以固定顺序列出所有状态，供缓存预热等批量操作使用。
func AllStatuses() []CouponStatus {
	return []CouponStatus{StatusUsable, StatusUsed, StatusExpired}
}

// StatusOf 根据存储编码还原状态，非法编码返回 ErrUnknownStatus。
func StatusOf(code int) (CouponStatus, error) {
	switch CouponStatus(code) {
	case StatusUsable, StatusUsed, StatusExpired:
		return CouponStatus(code), nil
	default:
		return 0, fmt.Errorf("%w: code %d", ErrUnknownStatus, code)
	}
}

func (s CouponStatus) String() string {
	switch s {
	case StatusUsable:
		return "USABLE"
	case StatusUsed:
		return "USED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// CanTransitionTo 校验状态流转是否合法。
func (s CouponStatus) CanTransitionTo(target CouponStatus) bool {
	switch s {
	case StatusUsable:
		return target == StatusUsed || target == StatusExpired
	case StatusUsed, StatusExpired:
		return false
	default:
		return false
	}
}
