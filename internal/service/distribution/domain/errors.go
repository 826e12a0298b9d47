// internal/service/distribution/domain/errors.go
package domain

import "errors"

// 业务错误按四类划分：
// 校验类（调用方的问题，同步返回，不产生任何状态变更）、
// 资源耗尽类（券码取光、领取达到上限）、
// 一致性故障类（缓存迁移前置校验失败、对账数量不匹配）、
// 上游不可用类（模板/结算微服务访问失败，走降级响应）。
var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrTemplateNotFound    = errors.New("coupon template not found")
	ErrCouponNotOwned      = errors.New("coupon does not belong to current user")
	ErrLimitationExceeded  = errors.New("template acquire limitation exceeded")
	ErrCodePoolExhausted   = errors.New("coupon code pool is exhausted")
	ErrCacheInconsistent   = errors.New("coupons to migrate are not present in usable cache partition")
	ErrReconcileMismatch   = errors.New("reconcile message ids do not match durable records")
	ErrUnknownStatus       = errors.New("unknown coupon status")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
