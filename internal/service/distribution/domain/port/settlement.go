// internal/service/distribution/domain/port/settlement.go
package port

import (
	"context"

	"promoflow/internal/service/distribution/domain"
)

// SettlementCompute 是结算规则微服务的出站端口。
// 折扣算法完全由对方负责，本服务只做归属与状态校验。
type SettlementCompute interface {
	// ComputeRule 计算折后价并标记优惠券是否被核销。
	// 上游不可用时实现方返回降级结果：Employ=false 且 Cost=-1，
	// 调用方必须把它当作“未打折”，不得当作成功。
	ComputeRule(ctx context.Context, info *domain.SettlementInfo) (*domain.SettlementInfo, error)
}
