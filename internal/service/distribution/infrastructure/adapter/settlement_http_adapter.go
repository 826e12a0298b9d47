// internal/service/distribution/infrastructure/adapter/settlement_http_adapter.go
package adapter

import (
	"context"
	"strings"

	"promoflow/internal/pkg/httpclient"
	"promoflow/internal/pkg/logger"
	"promoflow/internal/service/distribution/domain"
)

// degradedCost 是结算降级响应里的哨兵价格。
// 调用方看到 Employ=false 且 Cost=-1 必须按“未打折”处理。
const degradedCost = -1.0

// SettlementHTTPAdapter 是 port.SettlementCompute 的 HTTP 实现。
type SettlementHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewSettlementHTTPAdapter(client *httpclient.Client, baseURL string) *SettlementHTTPAdapter {
	return &SettlementHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ComputeRule 调用结算微服务计算折后价。
// 上游不可用时返回降级结果而不是错误，调用方据此跳过核销。
func (a *SettlementHTTPAdapter) ComputeRule(ctx context.Context, info *domain.SettlementInfo) (*domain.SettlementInfo, error) {
	var processed domain.SettlementInfo
	err := a.client.PostJSON(ctx, a.baseURL+"/settlement/compute", info, &processed)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Int64("user_id", info.UserID).
			Msg("settlement service computeRule request error, degrading")
		fallback := *info
		fallback.Employ = false
		fallback.Cost = degradedCost
		return &fallback, nil
	}
	return &processed, nil
}
