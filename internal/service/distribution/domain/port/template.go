// internal/service/distribution/domain/port/template.go
package port

import (
	"context"

	"promoflow/internal/service/distribution/domain"
)

// TemplateLookup 是模板微服务的出站端口。
type TemplateLookup interface {
	// FindByID 查询单个模板，不存在时返回 domain.ErrTemplateNotFound。
	FindByID(ctx context.Context, id int64) (*domain.TemplateSDK, error)

	// FindByIDs 批量查询模板，返回 id 到模板的映射；缺失的 id 不在映射中。
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.TemplateSDK, error)

	// FindAllActive 查询当前所有可领取的模板。
	FindAllActive(ctx context.Context) ([]*domain.TemplateSDK, error)
}
