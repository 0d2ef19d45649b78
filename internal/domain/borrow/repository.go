package borrow

import (
	"context"
	"time"
)

// Repository 借阅仓储接口（依赖倒置原则）
// 设计说明：
// 1. 由domain层定义接口，infrastructure层实现
// 2. 支持事务操作（通过context传递事务）
// 3. UpdateStatus是唯一的写状态入口：条件更新（乐观锁），
//    保证所有写入方（读者、馆员、后台巡检）共用同一套并发纪律
type Repository interface {
	// Create 创建借阅记录（初始PENDING）
	// 必须在TxManager.Transaction内调用，与可借数量检查构成原子单元
	Create(ctx context.Context, b *Borrow) error

	// FindByID 根据ID查找借阅记录
	FindByID(ctx context.Context, id uint) (*Borrow, error)

	// UpdateStatus 条件状态更新（compare-and-set）
	// 执行：UPDATE borrows SET ... WHERE id=? AND status=?（expected）
	// 返回：
	// - nil: 更新成功
	// - ErrStatusConflict: 记录存在但状态已不是expected（输掉竞争）
	// - ErrBorrowNotFound: 记录不存在
	UpdateStatus(ctx context.Context, b *Borrow, expected BorrowStatus) error

	// SumCommittedByBook 某图书的在借总量
	// 口径：该图书所有PENDING+APPROVED记录的quantity之和
	// 在事务内、持有图书行锁时调用可获得一致性快照
	SumCommittedByBook(ctx context.Context, bookID uint) (int, error)

	// SumCommittedByReader 某读者的在借总量（跨所有图书）
	SumCommittedByReader(ctx context.Context, readerID uint) (int, error)

	// List 分页查询借阅记录
	List(ctx context.Context, params ListParams) ([]*Borrow, int64, error)

	// CountStats 按当前筛选条件统计各状态数量
	// overdue口径与实体的IsOverdue一致：在借中已超应还日期，
	// 或归还时已超应还日期
	CountStats(ctx context.Context, params ListParams, now time.Time) (*StatusStats, error)

	// FindExpiredPending 查询过期的待审批记录（后台巡检用）
	// 条件：status==PENDING且createdAt<=before；按createdAt升序，最多limit条
	FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*Borrow, error)

	// CountByStatus 按状态统计总量（统计模块用，无筛选）
	CountByStatus(ctx context.Context, status BorrowStatus) (int64, error)
}

// ListParams 借阅列表查询参数
type ListParams struct {
	ReaderID    uint         // 按读者筛选（0表示不限，"我的借阅"场景必填）
	BookID      uint         // 按图书筛选（0表示不限）
	Status      BorrowStatus // 按状态筛选（0表示不限）
	CreatedFrom time.Time    // 申请时间下界（零值表示不限）
	CreatedTo   time.Time    // 申请时间上界（零值表示不限）
	Keyword     string       // 关键词（匹配备注或图书标题）
	Page        int          // 页码（从1开始）
	PageSize    int          // 每页数量
}

// StatusStats 借阅状态统计（针对同一筛选条件的聚合视图）
type StatusStats struct {
	Pending  int64 `json:"pending"`  // 待审批数量
	Approved int64 `json:"approved"` // 已借出数量
	Overdue  int64 `json:"overdue"`  // 逾期数量（派生口径，含逾期归还）
}

// TxManager 事务管理器接口
// 说明：由infrastructure/persistence/mysql.TxManager实现；
// fn内的所有Repository操作在同一事务中执行，fn返回error时回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
