// internal/service/distribution/infrastructure/redis_cache.go
package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/pkg/redis"
	"promoflow/internal/service/distribution/domain"
)

const (
	userCouponUsableKey   = "promoflow_user_coupon_usable_%d"
	userCouponUsedKey     = "promoflow_user_coupon_used_%d"
	userCouponExpiredKey  = "promoflow_user_coupon_expired_%d"
	couponTemplateCodeKey = "promoflow_coupon_template_code_%d"

	emptyMarkerField = "-1"
)

// RedisCouponCache 实现 port.CouponCache 与 port.CouponCodePool。
//
// 每个 (用户, 状态) 分区是一个 hash：field 为券 id 字符串，value 为
// 券的 JSON。分区的过期时间在每次写入时从 [ttlMin, ttlMax] 均匀抽取，
// 避免大量分区在同一时刻集中失效打垮 DB。
type RedisCouponCache struct {
	client *redis.Client

	ttlMin time.Duration
	ttlMax time.Duration
}

// NewRedisCouponCache 创建缓存实例，ttl 窗口以小时为单位。
func NewRedisCouponCache(client *redis.Client, ttlMinHours, ttlMaxHours int) (*RedisCouponCache, error) {
	if ttlMinHours >= ttlMaxHours {
		return nil, fmt.Errorf("invalid ttl window: [%d, %d] hours", ttlMinHours, ttlMaxHours)
	}
	return &RedisCouponCache{
		client: client,
		ttlMin: time.Duration(ttlMinHours) * time.Hour,
		ttlMax: time.Duration(ttlMaxHours) * time.Hour,
	}, nil
}

// GetCachedCoupons 返回分区的原始内容，包括可能存在的空标记。
// 空切片表示分区物理上不存在（未命中），由调用方回源。
func (c *RedisCouponCache) GetCachedCoupons(ctx context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	key, err := statusKey(status, userID)
	if err != nil {
		return nil, err
	}
	values, err := c.client.GetClient().HVals(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cache partition %s", key)
	}

	coupons := make([]*domain.Coupon, 0, len(values))
	for _, v := range values {
		var coupon domain.Coupon
		if err := json.Unmarshal([]byte(v), &coupon); err != nil {
			return nil, errors.Wrapf(err, "corrupt coupon entry in %s", key)
		}
		coupons = append(coupons, &coupon)
	}
	return coupons, nil
}

// SaveEmptyCouponList 向给定状态分区写入空标记，防止缓存穿透。
// 多个分区的写入通过 pipeline 一次发出。
func (c *RedisCouponCache) SaveEmptyCouponList(ctx context.Context, userID int64, statuses []domain.CouponStatus) error {
	marker, err := json.Marshal(domain.NewEmptyMarker())
	if err != nil {
		return err
	}

	pipe := c.client.GetClient().Pipeline()
	for _, status := range statuses {
		key, err := statusKey(status, userID)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, key, emptyMarkerField, marker)
		pipe.Expire(ctx, key, c.jitterTTL())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to cache empty coupon markers")
	}

	logger.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int("partitions", len(statuses)).
		Msg("empty coupon markers cached")
	return nil
}

// AddCouponsToCache 把一批券写入目标状态分区。
// USABLE 是单纯的 upsert，USED/EXPIRED 走迁移路径。
func (c *RedisCouponCache) AddCouponsToCache(ctx context.Context, userID int64, coupons []*domain.Coupon, status domain.CouponStatus) error {
	if len(coupons) == 0 {
		return nil
	}
	switch status {
	case domain.StatusUsable:
		return c.addForUsable(ctx, userID, coupons)
	case domain.StatusUsed, domain.StatusExpired:
		return c.migrateFromUsable(ctx, userID, coupons, status)
	default:
		return fmt.Errorf("unknown coupon status: %d", status)
	}
}

func (c *RedisCouponCache) addForUsable(ctx context.Context, userID int64, coupons []*domain.Coupon) error {
	key, _ := statusKey(domain.StatusUsable, userID)
	entries, err := marshalEntries(coupons)
	if err != nil {
		return err
	}

	pipe := c.client.GetClient().Pipeline()
	pipe.HSet(ctx, key, entries)
	pipe.Expire(ctx, key, c.jitterTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to cache usable coupons for user %d", userID)
	}
	return nil
}

// migrateFromUsable 把一批券从 USABLE 分区迁移到 USED/EXPIRED 分区。
//
// 先做前置校验：入参中的每张券都必须还在 USABLE 分区里，否则说明
// 调用方视图与缓存已经脱节，直接报一致性错误，不发出任何破坏性命令。
// 校验通过后用一个 pipeline 把“写目标分区、删源分区、重置两个分区
// TTL”背靠背发出。这不是事务：pipeline 发送后、全部应用前如果
// 发生故障，迁移可能半途而废（已知风险，缓存可由 DB 重建）。
func (c *RedisCouponCache) migrateFromUsable(ctx context.Context, userID int64, coupons []*domain.Coupon, target domain.CouponStatus) error {
	usableKey, _ := statusKey(domain.StatusUsable, userID)
	targetKey, err := statusKey(target, userID)
	if err != nil {
		return err
	}

	current, err := c.GetCachedCoupons(ctx, userID, domain.StatusUsable)
	if err != nil {
		return err
	}
	currentIDs := make(map[int64]struct{}, len(current))
	for _, cur := range current {
		currentIDs[cur.ID] = struct{}{}
	}
	for _, coupon := range coupons {
		if _, ok := currentIDs[coupon.ID]; !ok {
			logger.Ctx(ctx).Error().
				Int64("user_id", userID).
				Int64("coupon_id", coupon.ID).
				Str("target", target.String()).
				Msg("migration precondition failed: coupon absent from usable partition")
			return errors.Wrapf(domain.ErrCacheInconsistent, "coupon %d", coupon.ID)
		}
	}

	entries, err := marshalEntries(coupons)
	if err != nil {
		return err
	}
	fields := make([]string, 0, len(coupons))
	for _, coupon := range coupons {
		fields = append(fields, fmt.Sprintf("%d", coupon.ID))
	}

	pipe := c.client.GetClient().Pipeline()
	pipe.HSet(ctx, targetKey, entries)
	pipe.HDel(ctx, usableKey, fields...)
	pipe.Expire(ctx, usableKey, c.jitterTTL())
	pipe.Expire(ctx, targetKey, c.jitterTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to migrate coupons to %s for user %d", target, userID)
	}

	logger.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int("count", len(coupons)).
		Str("target", target.String()).
		Msg("coupons migrated in cache")
	return nil
}

// AcquireCouponCode 从模板券码池左侧弹出一个码。
// 左弹右弹无所谓，池对这里来说是无序的。池空返回空串。
func (c *RedisCouponCache) AcquireCouponCode(ctx context.Context, templateID int64) (string, error) {
	key := fmt.Sprintf(couponTemplateCodeKey, templateID)
	code, err := c.client.GetClient().LPop(ctx, key).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to pop coupon code for template %d", templateID)
	}
	logger.Ctx(ctx).Debug().
		Int64("template_id", templateID).
		Str("code", code).
		Msg("coupon code acquired from pool")
	return code, nil
}

// PreloadCouponCodes (测试和管理用) 向模板券码池灌注一批券码。
func (c *RedisCouponCache) PreloadCouponCodes(ctx context.Context, templateID int64, codes []string) error {
	key := fmt.Sprintf(couponTemplateCodeKey, templateID)
	values := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		values = append(values, code)
	}
	if err := c.client.GetClient().RPush(ctx, key, values...).Err(); err != nil {
		return errors.Wrapf(err, "failed to preload coupon codes for template %d", templateID)
	}
	return nil
}

// jitterTTL 在 [ttlMin, ttlMax] 内均匀抽取一个过期时间。
func (c *RedisCouponCache) jitterTTL() time.Duration {
	window := c.ttlMax - c.ttlMin
	return c.ttlMin + time.Duration(rand.Int63n(int64(window)))
}

// statusKey 把状态映射到分区 key，穷举所有状态。
func statusKey(status domain.CouponStatus, userID int64) (string, error) {
	switch status {
	case domain.StatusUsable:
		return fmt.Sprintf(userCouponUsableKey, userID), nil
	case domain.StatusUsed:
		return fmt.Sprintf(userCouponUsedKey, userID), nil
	case domain.StatusExpired:
		return fmt.Sprintf(userCouponExpiredKey, userID), nil
	default:
		return "", fmt.Errorf("unknown coupon status: %d", status)
	}
}

func marshalEntries(coupons []*domain.Coupon) (map[string]interface{}, error) {
	entries := make(map[string]interface{}, len(coupons))
	for _, coupon := range coupons {
		raw, err := json.Marshal(coupon)
		if err != nil {
			return nil, err
		}
		entries[fmt.Sprintf("%d", coupon.ID)] = raw
	}
	return entries, nil
}
