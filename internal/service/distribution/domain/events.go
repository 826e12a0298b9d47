// internal/service/distribution/domain/events.go
package domain

// CouponKafkaMessage 是发往对账通道的状态变更事件。
// 生产方是结算/过期检测流程，消费方负责把 cache 侧已生效的
// 状态变更同步到 DB。消息本身是幂等的：重复投递只会把同一批
// 券再次置为同一个目标状态。
type CouponKafkaMessage struct {
	Status int     `json:"status"`
	IDs    []int64 `json:"ids"`
}

// NewCouponKafkaMessage 构造一条状态变更事件。
func NewCouponKafkaMessage(status CouponStatus, ids []int64) *CouponKafkaMessage {
	return &CouponKafkaMessage{
		Status: int(status),
		IDs:    ids,
	}
}
