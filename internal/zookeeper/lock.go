// internal/zookeeper/lock.go
package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/promoflow_locks" // 所有分布式锁的根节点

// DistributedLock 是基于临时顺序节点的分布式锁。
// 经典的羊群效应规避写法：每个竞争者只监听自己的前一个节点。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁的路径，例如 /promoflow_locks/settle-user-123
	lockNode string // 成功获取锁后，自己创建的节点路径
}

// NewDistributedLock 创建一个新的分布式锁实例。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	for _, p := range []string{lockRoot, lockPath} {
		exists, _, err := conn.Exists(p)
		if err != nil {
			return nil, fmt.Errorf("failed to check lock node %s: %w", p, err)
		}
		if exists {
			continue
		}
		if _, err := conn.Create(p, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
			return nil, fmt.Errorf("failed to create lock node %s: %w", p, err)
		}
	}
	return &DistributedLock{
		conn: conn,
		path: lockPath,
	}, nil
}

// Lock 阻塞直到拿到锁或 ctx 被取消。
func (l *DistributedLock) Lock(ctx context.Context) error {
	// 1. 创建临时顺序节点，会话断开后节点自动删除，锁不会永久卡死
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	mySeq, err := parseSeq(l.lockNode)
	if err != nil {
		_ = l.conn.Delete(l.lockNode, -1)
		l.lockNode = ""
		return err
	}

	for {
		// 2. 列出全部竞争者
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}

		// 3. 比较必须按节点名末尾的序号，不能按整个名字排序：
		// protected 节点名带随机 guid 前缀，字典序和创建顺序无关
		prevNodeName, err := nextLowerNode(children, mySeq)
		if err != nil {
			return err
		}
		if prevNodeName == "" {
			// 自己的序号最小，锁到手
			return nil
		}

		// 4. 否则监听序号紧邻自己之前的节点
		prevNodePath := l.path + "/" + prevNodeName

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			// 前一个节点恰好在监听前被删除，回到循环重新竞争
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-ctx.Done():
			// 放弃竞争时清掉自己的节点，否则会挡住后面的竞争者
			_ = l.conn.Delete(l.lockNode, -1)
			l.lockNode = ""
			return ctx.Err()
		}
	}
}

// parseSeq 提取节点名末尾的顺序号。
// 普通节点形如 lock-0000000001，protected 节点形如
// _c_<guid>-lock-0000000001，两者的序号都在最后一个 "-" 之后。
func parseSeq(path string) (int, error) {
	parts := strings.Split(path, "-")
	seq, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, fmt.Errorf("lock node %q has no sequence suffix: %w", path, err)
	}
	return seq, nil
}

// nextLowerNode 返回竞争者中序号紧邻 mySeq 之前的节点名。
// 返回空串表示 mySeq 已是最小序号。
func nextLowerNode(children []string, mySeq int) (string, error) {
	prevSeq := -1
	prevName := ""
	for _, child := range children {
		seq, err := parseSeq(child)
		if err != nil {
			return "", err
		}
		if seq < mySeq && seq > prevSeq {
			prevSeq = seq
			prevName = child
		}
	}
	return prevName, nil
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
