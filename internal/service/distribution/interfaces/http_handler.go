// internal/service/distribution/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"promoflow/internal/service/distribution/application"
	"promoflow/internal/service/distribution/domain"
)

// CouponHandler 封装了优惠券分发服务的 HTTP 处理器。
// 网关已经完成了鉴权和限流，这里收到的请求视为已认证。
type CouponHandler struct {
	service *application.CouponApplicationService
}

// NewCouponHandler 创建一个新的 HTTP 处理器实例。
func NewCouponHandler(service *application.CouponApplicationService) *CouponHandler {
	return &CouponHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CouponHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/coupons", h.handleFindCouponsByStatus)
	mux.HandleFunc("/templates/available", h.handleFindAvailableTemplates)
	mux.HandleFunc("/coupons/acquire", h.handleAcquireTemplate)
	mux.HandleFunc("/settlement/compute", h.handleSettle)
}

func (h *CouponHandler) handleFindCouponsByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	statusCode, err := strconv.Atoi(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	status, err := domain.StatusOf(statusCode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	coupons, err := h.service.FindCouponsByStatus(ctx, userID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, coupons)
}

func (h *CouponHandler) handleFindAvailableTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	templates, err := h.service.FindAvailableTemplates(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, templates)
}

func (h *CouponHandler) handleAcquireTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req application.AcquireTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Template == nil {
		http.Error(w, "template is required", http.StatusBadRequest)
		return
	}

	coupon, err := h.service.AcquireTemplate(ctx, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, coupon)
}

func (h *CouponHandler) handleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var info domain.SettlementInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Settle(ctx, &info)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, result)
}

// extractTraceContext 从请求头中恢复上游传入的追踪上下文。
func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeDomainError 根据错误类型返回不同的 HTTP 状态码。
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrCouponNotOwned):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrLimitationExceeded),
		errors.Is(err, domain.ErrCodePoolExhausted):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrCacheInconsistent):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		statusCode = http.StatusServiceUnavailable
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
