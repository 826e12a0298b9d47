// internal/service/distribution/infrastructure/zk_lock_adapter.go
package infrastructure

import (
	"context"
	"fmt"

	"promoflow/internal/pkg/logger"
	"promoflow/internal/zookeeper"
)

// ZkUserLockAdapter 用 ZooKeeper 分布式锁实现 port.UserLocker。
//
// 缓存迁移只是 pipeline 不是事务，两笔结算如果同时通过“子集校验”
// 就会双重核销同一批券。用户粒度的分布式锁把“校验 + 迁移 + 发事件”
// 整段串行化，多实例部署下依然成立。
type ZkUserLockAdapter struct {
	conn *zookeeper.Conn
}

func NewZkUserLockAdapter(conn *zookeeper.Conn) *ZkUserLockAdapter {
	return &ZkUserLockAdapter{conn: conn}
}

// Lock 阻塞直到拿到 userID 对应的锁，返回解锁函数。
func (a *ZkUserLockAdapter) Lock(ctx context.Context, userID int64) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(a.conn, fmt.Sprintf("settle-user-%d", userID))
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Int64("user_id", userID).
				Msg("failed to release settle lock")
		}
	}, nil
}
