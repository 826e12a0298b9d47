// internal/service/distribution/domain/port/lock.go
package port

import "context"

// UserLocker 提供按用户串行化的互斥能力。
// 结算流程在“子集校验 + 缓存迁移 + 事件发送”整段持有该锁，
// 避免两笔结算对同一批券同时通过校验造成双重核销。
type UserLocker interface {
	// Lock 阻塞直到拿到 userID 对应的锁，返回解锁函数。
	Lock(ctx context.Context, userID int64) (func(), error)
}
