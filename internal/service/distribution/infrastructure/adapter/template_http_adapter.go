// internal/service/distribution/infrastructure/adapter/template_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"promoflow/internal/pkg/httpclient"
	"promoflow/internal/pkg/logger"
	"promoflow/internal/service/distribution/domain"
)

// TemplateHTTPAdapter 是 port.TemplateLookup 的 HTTP 实现。
//
// 模板微服务不可用时走降级：返回空结果并记录错误日志，
// 不把调用方阻塞在上游故障上。调用方会因为拿不到模板而
// 以业务错误（模板不存在/无可领取模板）收尾。
type TemplateHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewTemplateHTTPAdapter(client *httpclient.Client, baseURL string) *TemplateHTTPAdapter {
	return &TemplateHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FindByID 查询单个模板。
func (a *TemplateHTTPAdapter) FindByID(ctx context.Context, id int64) (*domain.TemplateSDK, error) {
	id2Template, err := a.FindByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	t, ok := id2Template[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return t, nil
}

// FindByIDs 批量查询模板，返回 id 到模板的映射。
func (a *TemplateHTTPAdapter) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.TemplateSDK, error) {
	idStrs := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrs = append(idStrs, strconv.FormatInt(id, 10))
	}
	params := url.Values{}
	params.Set("ids", strings.Join(idStrs, ","))

	// JSON object 的 key 只能是字符串，先按字符串解码再转回 int64
	var raw map[string]*domain.TemplateSDK
	err := a.client.GetJSON(ctx, a.baseURL+"/template/sdk/infos", params, &raw)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("template service findByIDs request error, degrading to empty map")
		return map[int64]*domain.TemplateSDK{}, nil
	}

	result := make(map[int64]*domain.TemplateSDK, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid template id %q in response: %w", k, err)
		}
		result[id] = v
	}
	return result, nil
}

// FindAllActive 查询当前所有可领取的模板。
func (a *TemplateHTTPAdapter) FindAllActive(ctx context.Context) ([]*domain.TemplateSDK, error) {
	var templates []*domain.TemplateSDK
	err := a.client.GetJSON(ctx, a.baseURL+"/template/sdk/all", nil, &templates)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("template service findAllActive request error, degrading to empty list")
		return []*domain.TemplateSDK{}, nil
	}
	return templates, nil
}
