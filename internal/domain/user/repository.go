package user

import (
	"context"
)

// Repository 用户仓储接口
// DDD设计说明：
// 1. 接口定义在domain层（依赖倒置原则）
// 2. 具体实现在infrastructure/persistence/mysql层
// 3. 这样domain层不依赖任何外部框架（GORM、sqlx等）
// 4. 便于单元测试（Mock此接口）
type Repository interface {
	// Create 创建用户
	// 注意：如果邮箱已存在，应返回errors.ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找用户
	// 如果不存在，返回errors.ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 根据邮箱查找用户
	// 如果不存在，返回errors.ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// LockByID 悲观锁查询用户（SELECT FOR UPDATE）
	// 借阅准入控制用：锁定读者行，串行化同一读者的并发借阅申请，
	// 保证"读者当前借阅总量"的读取与新记录的写入是一个原子单元
	// 注意：必须在TxManager.Transaction内调用
	LockByID(ctx context.Context, id uint) (*User, error)

	// Update 更新用户信息
	Update(ctx context.Context, user *User) error

	// CountByRole 按角色统计用户数（统计模块用）
	CountByRole(ctx context.Context, role Role) (int64, error)
}
