// Package repository 定义数据访问层接口
package repository

import "context"

// Transactor 事务边界
// 异步任务提交时，任务写入与消息发布在同一事务回调内完成，发布失败即回滚任务
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
