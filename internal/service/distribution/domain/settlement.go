// internal/service/distribution/domain/settlement.go
package domain

// GoodsInfo 是待结算商品的条目。
type GoodsInfo struct {
	Price float64 `json:"price"`
	Count int     `json:"count"`
	Type  int     `json:"type"`
}

// CouponAndTemplateInfo 是结算请求中引用的一张券及其模板快照。
type CouponAndTemplateInfo struct {
	ID       int64        `json:"id"`
	Template *TemplateSDK `json:"template,omitempty"`
}

// SettlementInfo 既是结算请求也是结算结果：
// 结算微服务在原对象上填充 Employ 与 Cost 后原样返回。
type SettlementInfo struct {
	UserID                 int64                   `json:"userId"`
	GoodsInfos             []GoodsInfo             `json:"goodsInfos"`
	CouponAndTemplateInfos []CouponAndTemplateInfo `json:"couponAndTemplateInfos"`

	// Employ 表示所选优惠券是否真正被核销
	Employ bool `json:"employ"`
	// Cost 为折后总价；上游降级时为 -1，调用方必须视为“未打折”
	Cost float64 `json:"cost"`
}

// GoodsTotal 计算商品总价（未打折、未舍入）。
func (s *SettlementInfo) GoodsTotal() float64 {
	var sum float64
	for _, g := range s.GoodsInfos {
		sum += g.Price * float64(g.Count)
	}
	return sum
}

// CouponIDs 提取请求中引用的券 id。
func (s *SettlementInfo) CouponIDs() []int64 {
	ids := make([]int64, 0, len(s.CouponAndTemplateInfos))
	for _, ct := range s.CouponAndTemplateInfos {
		ids = append(ids, ct.ID)
	}
	return ids
}
