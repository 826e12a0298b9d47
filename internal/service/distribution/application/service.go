// internal/service/distribution/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/pkg/metrics"
	"promoflow/internal/service/distribution/domain"
	"promoflow/internal/service/distribution/domain/port"
)

// CouponApplicationService 编排优惠券的全部业务用例：
// 按状态查询、可领取模板计算、领取、结算核销。
//
// 所有状态变更先落在 cache，再经由对账事件异步同步到 DB。
// 直接用异步任务而不是消息队列是不行的：任务失败后现场就丢了，
// 而进入 Kafka 的消息即使消费失败也能靠重投递回溯，保证
// cache 与存储最终一致。
type CouponApplicationService struct {
	couponRepo domain.CouponRepository
	cache      port.CouponCache
	codePool   port.CouponCodePool
	templates  port.TemplateLookup
	settlement port.SettlementCompute
	producer   port.ReconcileProducer
	locker     port.UserLocker
	tracer     trace.Tracer

	// 同一 (user,status) 的并发回源合并为一次 DB 读，防止缓存击穿
	loadGroup singleflight.Group

	now func() time.Time
}

func NewCouponApplicationService(
	couponRepo domain.CouponRepository,
	cache port.CouponCache,
	codePool port.CouponCodePool,
	templates port.TemplateLookup,
	settlement port.SettlementCompute,
	producer port.ReconcileProducer,
	locker port.UserLocker,
	tracer trace.Tracer,
) *CouponApplicationService {
	return &CouponApplicationService{
		couponRepo: couponRepo,
		cache:      cache,
		codePool:   codePool,
		templates:  templates,
		settlement: settlement,
		producer:   producer,
		locker:     locker,
		tracer:     tracer,
		now:        time.Now,
	}
}

// FindCouponsByStatus 按用户和状态查询优惠券，缓存优先。
// 查询 USABLE 时会对每张券做惰性过期判定：过期子集当场迁移到
// EXPIRED 分区并发出一条对账事件，只返回仍然可用的部分。
func (s *CouponApplicationService) FindCouponsByStatus(ctx context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "app.FindCouponsByStatus")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("coupon.status", status.String()),
	)

	cached, err := s.cache.GetCachedCoupons(ctx, userID, status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(cached) > 0 {
		// 分区存在：可能是真实数据，也可能只有空标记（确认为空）
		metrics.CacheHits.WithLabelValues(status.String()).Inc()
		real := domain.FilterMarkers(cached)
		if status != domain.StatusUsable || len(real) == 0 {
			return real, nil
		}
		return s.expireLazily(ctx, userID, real)
	}

	metrics.CacheMisses.WithLabelValues(status.String()).Inc()
	loaded, err := s.loadFromStore(ctx, userID, status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return loaded, nil
}

// loadFromStore 在缓存未命中时回源 DB，批量填充模板快照后写回缓存。
// DB 也为空时向缓存写入空标记，防止后续同样的查询反复穿透。
//
// 惰性过期判定也在 singleflight 闭包内完成：合并进同一次回源的
// 全部调用方共享同一批对象，分类和迁移必须恰好执行一次，否则
// 除第一个之外的调用方都会撞上迁移前置校验失败。
func (s *CouponApplicationService) loadFromStore(ctx context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	key := fmt.Sprintf("%d:%d", userID, status)
	v, err, _ := s.loadGroup.Do(key, func() (interface{}, error) {
		dbCoupons, err := s.couponRepo.FindByUserAndStatus(ctx, userID, status)
		if err != nil {
			return nil, err
		}
		if len(dbCoupons) == 0 {
			logger.Ctx(ctx).Debug().
				Int64("user_id", userID).
				Str("status", status.String()).
				Msg("no coupons in durable store, caching empty marker")
			metrics.NegativeCacheWrites.Inc()
			if err := s.cache.SaveEmptyCouponList(ctx, userID, []domain.CouponStatus{status}); err != nil {
				return nil, err
			}
			return []*domain.Coupon{}, nil
		}

		if err := s.hydrateTemplates(ctx, dbCoupons); err != nil {
			return nil, err
		}
		if err := s.cache.AddCouponsToCache(ctx, userID, dbCoupons, status); err != nil {
			return nil, err
		}
		if status == domain.StatusUsable {
			return s.expireLazily(ctx, userID, dbCoupons)
		}
		return dbCoupons, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Coupon), nil
}

// hydrateTemplates 按模板 id 集合一次性拉取快照，逐张填充。
func (s *CouponApplicationService) hydrateTemplates(ctx context.Context, coupons []*domain.Coupon) error {
	idSet := make(map[int64]struct{}, len(coupons))
	templateIDs := make([]int64, 0, len(coupons))
	for _, c := range coupons {
		if _, ok := idSet[c.TemplateID]; !ok {
			idSet[c.TemplateID] = struct{}{}
			templateIDs = append(templateIDs, c.TemplateID)
		}
	}
	id2Template, err := s.templates.FindByIDs(ctx, templateIDs)
	if err != nil {
		return err
	}
	for _, c := range coupons {
		c.Template = id2Template[c.TemplateID]
	}
	return nil
}

// expireLazily 把已过模板截止时间的券迁移到 EXPIRED 并发事件，
// 返回仍然可用的子集。
func (s *CouponApplicationService) expireLazily(ctx context.Context, userID int64, coupons []*domain.Coupon) ([]*domain.Coupon, error) {
	classify := domain.Classify(coupons, s.now())
	if len(classify.Expired) == 0 {
		return classify.Usable, nil
	}

	logger.Ctx(ctx).Info().
		Int64("user_id", userID).
		Ints64("coupon_ids", domain.IDs(classify.Expired)).
		Msg("expired coupons detected on read, migrating to EXPIRED partition")

	// 缓存里的 JSON 必须带上迁移后的状态，读 EXPIRED 分区的人
	// 不应看到一张自称 USABLE 的券
	for _, c := range classify.Expired {
		if c.Status.CanTransitionTo(domain.StatusExpired) {
			c.Status = domain.StatusExpired
		}
	}

	if err := s.cache.AddCouponsToCache(ctx, userID, classify.Expired, domain.StatusExpired); err != nil {
		if errors.Is(err, domain.ErrCacheInconsistent) {
			// 另一个并发读取抢先完成了同一批券的迁移，事件也由
			// 它发出；这里只需返回可用子集，不把竞态当作故障
			logger.Ctx(ctx).Debug().
				Int64("user_id", userID).
				Ints64("coupon_ids", domain.IDs(classify.Expired)).
				Msg("expired coupons already migrated by a concurrent reader")
			return classify.Usable, nil
		}
		return nil, err
	}
	msg := domain.NewCouponKafkaMessage(domain.StatusExpired, domain.IDs(classify.Expired))
	if err := s.producer.SendCouponStatusChange(ctx, msg); err != nil {
		// 缓存已迁移成功，事件发送失败只影响 DB 同步的时效；
		// 下一次读取不会再看到这批券，记录错误后继续
		logger.Ctx(ctx).Error().Err(err).Msg("failed to emit reconcile event for expired coupons")
	}
	return classify.Usable, nil
}

// FindAvailableTemplates 计算某用户当前还能领取哪些模板。
// 模板微服务自身的清理任务存在滞后，这里要再按截止时间过滤一遍。
func (s *CouponApplicationService) FindAvailableTemplates(ctx context.Context, userID int64) ([]*domain.TemplateSDK, error) {
	ctx, span := s.tracer.Start(ctx, "app.FindAvailableTemplates")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	all, err := s.templates.FindAllActive(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := s.now()
	active := make([]*domain.TemplateSDK, 0, len(all))
	for _, t := range all {
		if !t.IsExpiredAt(now) {
			active = append(active, t)
		}
	}

	usable, err := s.FindCouponsByStatus(ctx, userID, domain.StatusUsable)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	holdCount := make(map[int64]int, len(usable))
	for _, c := range usable {
		holdCount[c.TemplateID]++
	}

	result := make([]*domain.TemplateSDK, 0, len(active))
	for _, t := range active {
		if holdCount[t.ID] >= t.Rule.Limitation {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// AcquireTemplate 为用户发放一张模板券。
// 顺序有讲究：先落 DB 再写缓存，保证缓存视图永远不会领先于持久状态。
//
// 限领校验与后续的取码、落库之间没有加锁，同一用户对同一模板的
// 并发领取存在 check-then-act 竞态（沿袭原设计，见 DESIGN.md）。
func (s *CouponApplicationService) AcquireTemplate(ctx context.Context, req *AcquireTemplateRequest) (*domain.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "app.AcquireTemplate")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("template.id", req.Template.ID),
	)

	// 1. 向模板微服务确认模板仍然存在
	template, err := s.templates.FindByID(ctx, req.Template.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 2. 根据 limitation 判断用户是否还可领取
	usable, err := s.FindCouponsByStatus(ctx, req.UserID, domain.StatusUsable)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var held int
	for _, c := range usable {
		if c.TemplateID == template.ID {
			held++
		}
	}
	if held >= template.Rule.Limitation {
		logger.Ctx(ctx).Warn().
			Int64("user_id", req.UserID).
			Int64("template_id", template.ID).
			Int("held", held).
			Msg("acquire rejected: limitation exceeded")
		return nil, domain.ErrLimitationExceeded
	}

	// 3. 取券码，池空即失败，不重试
	code, err := s.codePool.AcquireCouponCode(ctx, template.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if code == "" {
		return nil, domain.ErrCodePoolExhausted
	}

	// 4. 先持久化
	newCoupon := domain.NewCoupon(template.ID, req.UserID, code)
	saved, err := s.couponRepo.Save(ctx, newCoupon)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 5. 填充模板快照后再写缓存，缓存中的券必须是完整的
	saved.Template = template
	if err := s.cache.AddCouponsToCache(ctx, req.UserID, []*domain.Coupon{saved}, domain.StatusUsable); err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.CouponsAcquired.Inc()
	logger.Ctx(ctx).Info().
		Int64("user_id", req.UserID).
		Int64("coupon_id", saved.ID).
		Str("code", saved.Code).
		Msg("coupon acquired")
	return saved, nil
}

// Settle 结算（核销）优惠券。规则计算由结算微服务负责，
// 这里只做归属校验和核销后的状态迁移。
func (s *CouponApplicationService) Settle(ctx context.Context, info *domain.SettlementInfo) (*domain.SettlementInfo, error) {
	ctx, span := s.tracer.Start(ctx, "app.Settle")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", info.UserID))

	// 没选优惠券：直接返回商品总价，不触碰券子系统
	if len(info.CouponAndTemplateInfos) == 0 {
		info.Cost = roundMoney(info.GoodsTotal())
		return info, nil
	}

	// 子集校验和缓存迁移之间必须互斥，否则两笔结算可以
	// 同时通过校验，各自迁移一遍造成双重核销
	unlock, err := s.locker.Lock(ctx, info.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer unlock()

	usable, err := s.FindCouponsByStatus(ctx, info.UserID, domain.StatusUsable)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	id2Coupon := make(map[int64]*domain.Coupon, len(usable))
	for _, c := range usable {
		id2Coupon[c.ID] = c
	}

	settleCoupons := make([]*domain.Coupon, 0, len(info.CouponAndTemplateInfos))
	for _, ct := range info.CouponAndTemplateInfos {
		c, ok := id2Coupon[ct.ID]
		if !ok {
			logger.Ctx(ctx).Error().
				Int64("user_id", info.UserID).
				Int64("coupon_id", ct.ID).
				Msg("settlement references a coupon the user does not hold as usable")
			return nil, domain.ErrCouponNotOwned
		}
		settleCoupons = append(settleCoupons, c)
	}

	processed, err := s.settlement.ComputeRule(ctx, info)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 只有结算服务确认券被核销才变更状态；降级响应（Employ=false,
	// Cost=-1）不产生任何状态变更
	if processed.Employ && len(processed.CouponAndTemplateInfos) > 0 {
		for _, c := range settleCoupons {
			if c.Status.CanTransitionTo(domain.StatusUsed) {
				c.Status = domain.StatusUsed
			}
		}
		if err := s.cache.AddCouponsToCache(ctx, info.UserID, settleCoupons, domain.StatusUsed); err != nil {
			span.RecordError(err)
			return nil, err
		}
		msg := domain.NewCouponKafkaMessage(domain.StatusUsed, domain.IDs(settleCoupons))
		if err := s.producer.SendCouponStatusChange(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to emit reconcile event for settled coupons")
		}
		metrics.CouponsSettled.Add(float64(len(settleCoupons)))
		processed.Cost = roundMoney(processed.Cost)
		logger.Ctx(ctx).Info().
			Int64("user_id", info.UserID).
			Ints64("coupon_ids", domain.IDs(settleCoupons)).
			Float64("cost", processed.Cost).
			Msg("coupons settled")
	}
	return processed, nil
}

// roundMoney 金额保留两位小数，四舍五入（round-half-up）。
// 只在金额作为响应定稿时调用，中间累加不做舍入。
func roundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
