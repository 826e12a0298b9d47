// internal/service/distribution/domain/template.go
package domain

import "time"

// TemplateSDK 是模板微服务下发的优惠券模板快照。
// 它只是展示与规则判断所需的冗余数据，真正的归属方是模板微服务，
// 每次从 DB 回源时都要重新填充，不能当作本服务拥有的数据持久化。
type TemplateSDK struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Logo        string       `json:"logo"`
	Desc        string       `json:"desc"`
	Category    string       `json:"category"`
	ProductLine int          `json:"productLine"`
	Key         string       `json:"key"`
	Rule        TemplateRule `json:"rule"`
}

// TemplateRule 是模板携带的规则集合。
type TemplateRule struct {
	Expiration RuleExpiration `json:"expiration"`
	Discount   RuleDiscount   `json:"discount"`
	// 每个用户最多可持有的该模板可用券数量
	Limitation int       `json:"limitation"`
	Usage      RuleUsage `json:"usage"`
}

// RuleExpiration 描述过期规则，Deadline 为毫秒级 epoch 时间戳。
type RuleExpiration struct {
	Period   int   `json:"period"`
	Gap      int   `json:"gap"`
	Deadline int64 `json:"deadline"`
}

// RuleDiscount 描述折扣参数，具体计算由结算微服务负责。
type RuleDiscount struct {
	Quota float64 `json:"quota"`
	Base  float64 `json:"base"`
}

// RuleUsage 描述使用限制。
type RuleUsage struct {
	Province  string `json:"province"`
	City      string `json:"city"`
	GoodsType string `json:"goodsType"`
}

// IsExpiredAt 判断模板在给定时刻是否已过期。
func (t *TemplateSDK) IsExpiredAt(now time.Time) bool {
	return t.Rule.Expiration.Deadline < now.UnixMilli()
}
