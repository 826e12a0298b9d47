// internal/service/distribution/application/dto.go
package application

import "promoflow/internal/service/distribution/domain"

// AcquireTemplateRequest 是用户领取一张模板券的请求。
// Template 字段携带调用方此前已取到的模板快照，
// 服务内部仍会向模板微服务二次确认模板存在。
type AcquireTemplateRequest struct {
	UserID   int64               `json:"userId"`
	Template *domain.TemplateSDK `json:"template"`
}
