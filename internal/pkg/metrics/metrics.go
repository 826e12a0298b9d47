// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 优惠券缓存与对账相关的核心指标。
// 对账丢弃（ReconcileDropped）必须可观测，这是数据一致性的报警信号。
var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoflow_coupon_cache_hits_total",
		Help: "Coupon partition reads served from cache.",
	}, []string{"status"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoflow_coupon_cache_misses_total",
		Help: "Coupon partition reads that fell back to the durable store.",
	}, []string{"status"})

	NegativeCacheWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoflow_coupon_negative_cache_writes_total",
		Help: "Empty-marker writes used to guard against cache penetration.",
	})

	CouponsAcquired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoflow_coupons_acquired_total",
		Help: "Coupons successfully issued to users.",
	})

	CouponsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoflow_coupons_settled_total",
		Help: "Coupons migrated to USED by settlement.",
	})

	ReconcileApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoflow_reconcile_applied_total",
		Help: "Reconciliation events applied to the durable store.",
	}, []string{"status"})

	ReconcileDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoflow_reconcile_dropped_total",
		Help: "Reconciliation events dropped because of an id-count mismatch.",
	})
)
