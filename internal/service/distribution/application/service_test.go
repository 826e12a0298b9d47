// internal/service/distribution/application/service_test.go
package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"promoflow/internal/service/distribution/domain"
	"promoflow/internal/service/distribution/domain/port"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// ---- 内存版出站端口，语义与 Redis/MySQL 适配器保持一致 ----

func cloneCoupon(c *domain.Coupon) *domain.Coupon {
	cp := *c
	return &cp
}

type fakeCouponRepo struct {
	mu                    sync.Mutex
	coupons               map[int64]*domain.Coupon
	nextID                int64
	findByUserStatusCalls int
	saveAllCalls          int

	// findDelay 模拟慢查询，并发回源合并的测试用
	findDelay time.Duration
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: map[int64]*domain.Coupon{}, nextID: 1000}
}

func (r *fakeCouponRepo) seed(id, userID, templateID int64, status domain.CouponStatus) {
	r.coupons[id] = &domain.Coupon{
		ID:         id,
		TemplateID: templateID,
		UserID:     userID,
		Code:       fmt.Sprintf("CODE-%d", id),
		Status:     status,
		AssignTime: fixedNow,
	}
}

func (r *fakeCouponRepo) FindByUserAndStatus(_ context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	if r.findDelay > 0 {
		time.Sleep(r.findDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByUserStatusCalls++
	result := make([]*domain.Coupon, 0)
	for _, c := range r.coupons {
		if c.UserID == userID && c.Status == status {
			result = append(result, cloneCoupon(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeCouponRepo) FindByIDs(_ context.Context, ids []int64) ([]*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*domain.Coupon, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.coupons[id]; ok {
			result = append(result, cloneCoupon(c))
		}
	}
	return result, nil
}

func (r *fakeCouponRepo) Save(_ context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	coupon.ID = r.nextID
	r.coupons[coupon.ID] = cloneCoupon(coupon)
	return coupon, nil
}

func (r *fakeCouponRepo) SaveAll(_ context.Context, coupons []*domain.Coupon) ([]*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveAllCalls++
	for _, c := range coupons {
		stored, ok := r.coupons[c.ID]
		if !ok {
			return nil, domain.ErrCouponNotFound
		}
		stored.Status = c.Status
	}
	return coupons, nil
}

type fakeCouponCache struct {
	mu         sync.Mutex
	partitions map[string]map[int64]*domain.Coupon
}

func newFakeCouponCache() *fakeCouponCache {
	return &fakeCouponCache{partitions: map[string]map[int64]*domain.Coupon{}}
}

func partitionKey(userID int64, status domain.CouponStatus) string {
	return fmt.Sprintf("%d:%d", userID, status)
}

func (f *fakeCouponCache) GetCachedCoupons(_ context.Context, userID int64, status domain.CouponStatus) ([]*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.partitions[partitionKey(userID, status)]
	result := make([]*domain.Coupon, 0, len(p))
	for _, c := range p {
		result = append(result, cloneCoupon(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeCouponCache) SaveEmptyCouponList(_ context.Context, userID int64, statuses []domain.CouponStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range statuses {
		key := partitionKey(userID, st)
		if f.partitions[key] == nil {
			f.partitions[key] = map[int64]*domain.Coupon{}
		}
		marker := domain.NewEmptyMarker()
		f.partitions[key][marker.ID] = marker
	}
	return nil
}

func (f *fakeCouponCache) AddCouponsToCache(_ context.Context, userID int64, coupons []*domain.Coupon, status domain.CouponStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	targetKey := partitionKey(userID, status)
	if f.partitions[targetKey] == nil {
		f.partitions[targetKey] = map[int64]*domain.Coupon{}
	}
	if status == domain.StatusUsable {
		for _, c := range coupons {
			f.partitions[targetKey][c.ID] = cloneCoupon(c)
		}
		return nil
	}
	// 迁移语义：先做子集校验，失败时不做任何破坏性写入
	usable := f.partitions[partitionKey(userID, domain.StatusUsable)]
	for _, c := range coupons {
		if _, ok := usable[c.ID]; !ok {
			return domain.ErrCacheInconsistent
		}
	}
	for _, c := range coupons {
		f.partitions[targetKey][c.ID] = cloneCoupon(c)
		delete(usable, c.ID)
	}
	return nil
}

// partitionIDs 返回分区中真实券的 id，测试断言用。
func (f *fakeCouponCache) partitionIDs(userID int64, status domain.CouponStatus) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0)
	for id := range f.partitions[partitionKey(userID, status)] {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeCodePool struct {
	mu    sync.Mutex
	codes map[int64][]string
}

func (f *fakeCodePool) AcquireCouponCode(_ context.Context, templateID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pool := f.codes[templateID]
	if len(pool) == 0 {
		return "", nil
	}
	code := pool[0]
	f.codes[templateID] = pool[1:]
	return code, nil
}

type fakeTemplateLookup struct {
	templates      map[int64]*domain.TemplateSDK
	findByIDsCalls int
}

func (f *fakeTemplateLookup) FindByID(_ context.Context, id int64) (*domain.TemplateSDK, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeTemplateLookup) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.TemplateSDK, error) {
	f.findByIDsCalls++
	result := make(map[int64]*domain.TemplateSDK, len(ids))
	for _, id := range ids {
		if t, ok := f.templates[id]; ok {
			result[id] = t
		}
	}
	return result, nil
}

func (f *fakeTemplateLookup) FindAllActive(_ context.Context) ([]*domain.TemplateSDK, error) {
	result := make([]*domain.TemplateSDK, 0, len(f.templates))
	for _, t := range f.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeSettlementCompute struct {
	calls int
	fn    func(*domain.SettlementInfo) (*domain.SettlementInfo, error)
}

func (f *fakeSettlementCompute) ComputeRule(_ context.Context, info *domain.SettlementInfo) (*domain.SettlementInfo, error) {
	f.calls++
	if f.fn == nil {
		degraded := *info
		degraded.Employ = false
		degraded.Cost = -1
		return &degraded, nil
	}
	return f.fn(info)
}

type fakeReconcileProducer struct {
	mu   sync.Mutex
	msgs []*domain.CouponKafkaMessage
	err  error
}

func (f *fakeReconcileProducer) SendCouponStatusChange(_ context.Context, msg *domain.CouponKafkaMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeUserLocker struct {
	mu        sync.Mutex
	locks     map[int64]*sync.Mutex
	lockCalls int
}

func (f *fakeUserLocker) Lock(_ context.Context, userID int64) (func(), error) {
	f.mu.Lock()
	f.lockCalls++
	if f.locks == nil {
		f.locks = map[int64]*sync.Mutex{}
	}
	l, ok := f.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		f.locks[userID] = l
	}
	f.mu.Unlock()
	l.Lock()
	return l.Unlock, nil
}

type serviceFixture struct {
	repo       *fakeCouponRepo
	cache      *fakeCouponCache
	pool       *fakeCodePool
	templates  *fakeTemplateLookup
	settlement *fakeSettlementCompute
	producer   *fakeReconcileProducer
	locker     *fakeUserLocker
	svc        *CouponApplicationService
	reconciler *ReconcileService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:       newFakeCouponRepo(),
		cache:      newFakeCouponCache(),
		pool:       &fakeCodePool{codes: map[int64][]string{}},
		templates:  &fakeTemplateLookup{templates: map[int64]*domain.TemplateSDK{}},
		settlement: &fakeSettlementCompute{},
		producer:   &fakeReconcileProducer{},
		locker:     &fakeUserLocker{},
	}
	tracer := otel.Tracer("test")
	f.svc = NewCouponApplicationService(
		f.repo, f.cache, f.pool, f.templates, f.settlement, f.producer, f.locker, tracer,
	)
	f.svc.now = func() time.Time { return fixedNow }
	f.reconciler = NewReconcileService(f.repo, tracer)
	return f
}

func (f *serviceFixture) addTemplate(id int64, limitation int, deadline time.Time) *domain.TemplateSDK {
	t := &domain.TemplateSDK{
		ID:   id,
		Name: fmt.Sprintf("template-%d", id),
		Rule: domain.TemplateRule{
			Expiration: domain.RuleExpiration{Deadline: deadline.UnixMilli()},
			Limitation: limitation,
		},
	}
	f.templates.templates[id] = t
	return t
}

// 编译期确认 fake 满足端口定义
var (
	_ domain.CouponRepository = (*fakeCouponRepo)(nil)
	_ port.CouponCache        = (*fakeCouponCache)(nil)
	_ port.CouponCodePool     = (*fakeCodePool)(nil)
	_ port.TemplateLookup     = (*fakeTemplateLookup)(nil)
	_ port.SettlementCompute  = (*fakeSettlementCompute)(nil)
	_ port.ReconcileProducer  = (*fakeReconcileProducer)(nil)
	_ port.UserLocker         = (*fakeUserLocker)(nil)
)

// ---- 查询路径 ----

func TestFindCouponsByStatusSecondCallServedFromCache(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(10, 1, fixedNow.Add(24*time.Hour))
	f.repo.seed(1, 100, 10, domain.StatusUsable)

	ctx := context.Background()
	first, err := f.svc.FindCouponsByStatus(ctx, 100, domain.StatusUsable)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), first[0].ID)
	require.NotNil(t, first[0].Template)
	assert.Equal(t, 1, f.repo.findByUserStatusCalls)
	assert.Equal(t, 1, f.templates.findByIDsCalls)

	// 第二次读取命中缓存：不触碰 DB，也不再访问模板服务
	second, err := f.svc.FindCouponsByStatus(ctx, 100, domain.StatusUsable)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.NotNil(t, second[0].Template)
	assert.Equal(t, 1, f.repo.findByUserStatusCalls)
	assert.Equal(t, 1, f.templates.findByIDsCalls)
}

func TestFindCouponsByStatusEmptyMarkerStopsPenetration(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	first, err := f.svc.FindCouponsByStatus(ctx, 200, domain.StatusUsable)
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Equal(t, 1, f.repo.findByUserStatusCalls)

	// 空标记已写入：同样的查询不允许再穿透到 DB
	second, err := f.svc.FindCouponsByStatus(ctx, 200, domain.StatusUsable)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 1, f.repo.findByUserStatusCalls)
}

func TestFindCouponsByStatusExpiresLazilyOnRead(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(20, 1, fixedNow.Add(time.Hour))
	f.repo.seed(30, 300, 20, domain.StatusUsable)
	ctx := context.Background()

	coupons, err := f.svc.FindCouponsByStatus(ctx, 300, domain.StatusUsable)
	require.NoError(t, err)
	require.Len(t, coupons, 1)

	// 时钟拨过模板截止时间，缓存里的券在下一次读取时被判过期
	f.svc.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }

	coupons, err = f.svc.FindCouponsByStatus(ctx, 300, domain.StatusUsable)
	require.NoError(t, err)
	assert.Empty(t, coupons)

	assert.Empty(t, f.cache.partitionIDs(300, domain.StatusUsable))
	assert.Equal(t, []int64{30}, f.cache.partitionIDs(300, domain.StatusExpired))
	require.Len(t, f.producer.msgs, 1)
	assert.Equal(t, int(domain.StatusExpired), f.producer.msgs[0].Status)
	assert.Equal(t, []int64{30}, f.producer.msgs[0].IDs)

	// 对账落库后再读：USABLE 确认为空，EXPIRED 可查，且不再产生新事件
	require.NoError(t, f.reconciler.Process(ctx, f.producer.msgs[0]))
	coupons, err = f.svc.FindCouponsByStatus(ctx, 300, domain.StatusUsable)
	require.NoError(t, err)
	assert.Empty(t, coupons)
	expired, err := f.svc.FindCouponsByStatus(ctx, 300, domain.StatusExpired)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(30), expired[0].ID)
	// EXPIRED 分区里的券不能自称 USABLE
	assert.Equal(t, domain.StatusExpired, expired[0].Status)
	assert.Len(t, f.producer.msgs, 1)
}

func TestFindCouponsByStatusConcurrentMissesExpireOnce(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(20, 1, fixedNow.Add(-time.Hour))
	f.repo.seed(30, 300, 20, domain.StatusUsable)
	// 慢查询让全部并发未命中合并进同一次回源
	f.repo.findDelay = 50 * time.Millisecond

	const readers = 8
	var wg sync.WaitGroup
	errs := make([]error, readers)
	results := make([][]*domain.Coupon, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.FindCouponsByStatus(context.Background(), 300, domain.StatusUsable)
		}(i)
	}
	wg.Wait()

	// 每个读取方都拿到干净的空结果，谁也不能因为别人已完成迁移而报错
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i], "reader %d", i)
		assert.Empty(t, results[i], "reader %d", i)
	}
	assert.Equal(t, 1, f.repo.findByUserStatusCalls)
	assert.Equal(t, []int64{30}, f.cache.partitionIDs(300, domain.StatusExpired))
	require.Len(t, f.producer.msgs, 1)
	assert.Equal(t, []int64{30}, f.producer.msgs[0].IDs)
}

func TestFindCouponsByStatusProducerFailureDoesNotUndoMigration(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(20, 1, fixedNow.Add(-time.Hour))
	f.repo.seed(31, 301, 20, domain.StatusUsable)
	f.producer.err = fmt.Errorf("kafka down")
	ctx := context.Background()

	coupons, err := f.svc.FindCouponsByStatus(ctx, 301, domain.StatusUsable)
	require.NoError(t, err)
	assert.Empty(t, coupons)
	// 事件丢了，但缓存迁移已生效
	assert.Equal(t, []int64{31}, f.cache.partitionIDs(301, domain.StatusExpired))
}

// ---- 可领取模板 ----

func TestFindAvailableTemplatesFiltersHeldAndExpired(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(40, 1, fixedNow.Add(24*time.Hour)) // 已领满
	f.addTemplate(41, 2, fixedNow.Add(24*time.Hour)) // 还可再领
	f.addTemplate(42, 1, fixedNow.Add(-time.Hour))   // 模板服务清理滞后，已过期
	f.repo.seed(50, 400, 40, domain.StatusUsable)
	f.repo.seed(51, 400, 41, domain.StatusUsable)

	result, err := f.svc.FindAvailableTemplates(context.Background(), 400)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(41), result[0].ID)
}

// ---- 领取 ----

func TestAcquireTemplate(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(60, 1, fixedNow.Add(24*time.Hour))
	f.pool.codes[60] = []string{"060-AAA", "060-BBB"}
	ctx := context.Background()

	coupon, err := f.svc.AcquireTemplate(ctx, &AcquireTemplateRequest{
		UserID:   500,
		Template: f.templates.templates[60],
	})
	require.NoError(t, err)
	assert.Equal(t, "060-AAA", coupon.Code)
	assert.Equal(t, domain.StatusUsable, coupon.Status)
	require.NotNil(t, coupon.Template)

	// 先落库后写缓存：两边都能看到这张券
	stored, err := f.repo.FindByIDs(ctx, []int64{coupon.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []int64{coupon.ID}, f.cache.partitionIDs(500, domain.StatusUsable))

	// limitation=1，第二次领取被拒绝，券码池不再被消耗
	_, err = f.svc.AcquireTemplate(ctx, &AcquireTemplateRequest{
		UserID:   500,
		Template: f.templates.templates[60],
	})
	assert.ErrorIs(t, err, domain.ErrLimitationExceeded)
	assert.Len(t, f.pool.codes[60], 1)
}

func TestAcquireTemplateCodePoolExhausted(t *testing.T) {
	f := newServiceFixture()
	f.addTemplate(61, 5, fixedNow.Add(24*time.Hour))

	_, err := f.svc.AcquireTemplate(context.Background(), &AcquireTemplateRequest{
		UserID:   501,
		Template: f.templates.templates[61],
	})
	assert.ErrorIs(t, err, domain.ErrCodePoolExhausted)
}

func TestAcquireTemplateUnknownTemplate(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.AcquireTemplate(context.Background(), &AcquireTemplateRequest{
		UserID:   502,
		Template: &domain.TemplateSDK{ID: 999},
	})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

// ---- 结算 ----

func TestSettleWithoutCouponsReturnsRoundedTotal(t *testing.T) {
	f := newServiceFixture()

	info := &domain.SettlementInfo{
		UserID:     600,
		GoodsInfos: []domain.GoodsInfo{{Price: 19.995, Count: 1}},
	}
	result, err := f.svc.Settle(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, 20.00, result.Cost)
	// 没选券就不走结算微服务，也不加用户锁
	assert.Equal(t, 0, f.settlement.calls)
	assert.Equal(t, 0, f.locker.lockCalls)
}

func TestSettleMigratesCouponsToUsed(t *testing.T) {
	f := newServiceFixture()
	tpl := f.addTemplate(70, 5, fixedNow.Add(24*time.Hour))
	f.repo.seed(5, 700, 70, domain.StatusUsable)
	f.repo.seed(7, 700, 70, domain.StatusUsable)
	f.settlement.fn = func(info *domain.SettlementInfo) (*domain.SettlementInfo, error) {
		processed := *info
		processed.Employ = true
		processed.Cost = 88.555
		return &processed, nil
	}
	ctx := context.Background()

	result, err := f.svc.Settle(ctx, &domain.SettlementInfo{
		UserID: 700,
		GoodsInfos: []domain.GoodsInfo{
			{Price: 50, Count: 2},
		},
		CouponAndTemplateInfos: []domain.CouponAndTemplateInfo{
			{ID: 5, Template: tpl},
			{ID: 7, Template: tpl},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Employ)
	assert.Equal(t, 88.56, result.Cost)

	// 两张券同时离开 USABLE、进入 USED，对账事件恰好一条
	assert.Empty(t, f.cache.partitionIDs(700, domain.StatusUsable))
	assert.Equal(t, []int64{5, 7}, f.cache.partitionIDs(700, domain.StatusUsed))
	used, err := f.svc.FindCouponsByStatus(ctx, 700, domain.StatusUsed)
	require.NoError(t, err)
	require.Len(t, used, 2)
	for _, c := range used {
		// USED 分区里的券携带迁移后的状态
		assert.Equal(t, domain.StatusUsed, c.Status)
	}
	require.Len(t, f.producer.msgs, 1)
	assert.Equal(t, int(domain.StatusUsed), f.producer.msgs[0].Status)
	assert.Equal(t, []int64{5, 7}, f.producer.msgs[0].IDs)
	assert.Equal(t, 1, f.locker.lockCalls)

	// 对账落库后，DB 状态与缓存一致，二次结算同一批券被拒绝
	require.NoError(t, f.reconciler.Process(ctx, f.producer.msgs[0]))
	_, err = f.svc.Settle(ctx, &domain.SettlementInfo{
		UserID:                 700,
		GoodsInfos:             []domain.GoodsInfo{{Price: 50, Count: 2}},
		CouponAndTemplateInfos: []domain.CouponAndTemplateInfo{{ID: 5, Template: tpl}},
	})
	assert.ErrorIs(t, err, domain.ErrCouponNotOwned)
}

func TestSettleRejectsCouponNotOwned(t *testing.T) {
	f := newServiceFixture()
	tpl := f.addTemplate(71, 5, fixedNow.Add(24*time.Hour))
	f.repo.seed(8, 701, 71, domain.StatusUsable)
	ctx := context.Background()

	_, err := f.svc.Settle(ctx, &domain.SettlementInfo{
		UserID:     701,
		GoodsInfos: []domain.GoodsInfo{{Price: 10, Count: 1}},
		CouponAndTemplateInfos: []domain.CouponAndTemplateInfo{
			{ID: 8, Template: tpl},
			{ID: 99, Template: tpl},
		},
	})
	assert.ErrorIs(t, err, domain.ErrCouponNotOwned)

	// 校验失败不产生任何状态变更：结算服务没被调用，券还在原地
	assert.Equal(t, 0, f.settlement.calls)
	assert.Empty(t, f.producer.msgs)
	assert.Equal(t, []int64{8}, f.cache.partitionIDs(701, domain.StatusUsable))
	assert.Empty(t, f.cache.partitionIDs(701, domain.StatusUsed))
}

func TestSettleDegradedResponseKeepsState(t *testing.T) {
	f := newServiceFixture()
	tpl := f.addTemplate(72, 5, fixedNow.Add(24*time.Hour))
	f.repo.seed(9, 702, 72, domain.StatusUsable)
	// settlement.fn 为空时 fake 返回降级响应 Employ=false, Cost=-1

	result, err := f.svc.Settle(context.Background(), &domain.SettlementInfo{
		UserID:                 702,
		GoodsInfos:             []domain.GoodsInfo{{Price: 10, Count: 1}},
		CouponAndTemplateInfos: []domain.CouponAndTemplateInfo{{ID: 9, Template: tpl}},
	})
	require.NoError(t, err)
	assert.False(t, result.Employ)
	assert.Equal(t, -1.0, result.Cost)
	assert.Equal(t, []int64{9}, f.cache.partitionIDs(702, domain.StatusUsable))
	assert.Empty(t, f.producer.msgs)
}

func TestRoundMoneyHalfUp(t *testing.T) {
	assert.Equal(t, 20.00, roundMoney(19.995))
	assert.Equal(t, 10.55, roundMoney(10.554))
	assert.Equal(t, 10.56, roundMoney(10.555))
	assert.Equal(t, 0.0, roundMoney(0))
}
