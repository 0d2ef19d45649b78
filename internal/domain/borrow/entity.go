package borrow

import (
	"time"
)

// 借阅业务规则常量
const (
	// MaxConcurrentBorrows 单个读者的全局借阅上限
	// 口径：该读者所有PENDING+APPROVED记录的quantity之和，跨所有图书
	MaxConcurrentBorrows = 5

	// LoanPeriod 借期：审批通过后14天内归还
	LoanPeriod = 14 * 24 * time.Hour

	// PendingExpireAfter 待审批申请的过期窗口：超过48小时未处理自动拒绝
	PendingExpireAfter = 48 * time.Hour

	// SystemRejectNote 系统自动拒绝的备注（与馆员手动拒绝区分，便于审计）
	SystemRejectNote = "借阅申请超过48小时未处理，系统已自动拒绝"
)

// BorrowStatus 借阅状态
// 设计说明：
// 1. 使用int类型而非string（节省存储空间，便于索引）
// 2. 状态值与流转方向无关，合法流转由transitions表定义
type BorrowStatus int

const (
	StatusPending   BorrowStatus = 1 // 待审批（初始状态，占用可借额度）
	StatusApproved  BorrowStatus = 2 // 已借出（馆员审批通过，占用可借额度）
	StatusReturned  BorrowStatus = 3 // 已归还（终态）
	StatusRejected  BorrowStatus = 4 // 已拒绝（馆员拒绝或系统超时拒绝，终态）
	StatusCancelled BorrowStatus = 5 // 已取消（读者主动取消，终态）
)

// String 实现Stringer接口（方便日志输出）
func (s BorrowStatus) String() string {
	switch s {
	case StatusPending:
		return "待审批"
	case StatusApproved:
		return "已借出"
	case StatusReturned:
		return "已归还"
	case StatusRejected:
		return "已拒绝"
	case StatusCancelled:
		return "已取消"
	default:
		return "未知状态"
	}
}

// IsTerminal 是否为终态（终态记录不允许再变更）
func (s BorrowStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusRejected || s == StatusCancelled
}

// transitions 合法的状态流转表
// PENDING → APPROVED / REJECTED / CANCELLED
// APPROVED → RETURNED
// 终态无后续状态；表中未列出的边一律非法
var transitions = map[BorrowStatus][]BorrowStatus{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusReturned},
	StatusReturned:  {},
	StatusRejected:  {},
	StatusCancelled: {},
}

// Borrow 借阅记录实体（聚合根）
// 设计说明：
// 1. 一次借阅申请对应一条记录，只追加不物理删除（完整历史留档）
// 2. 状态只能沿transitions表前进，不允许跳跃或回退
// 3. BorrowDate/DueDate只在审批通过时写入，ReturnDate只在确认归还时写入
// 4. "逾期"是读取时根据DueDate推导的标志，不是存储状态，也没有自动流转
type Borrow struct {
	ID              uint
	ReaderID        uint         // 借阅读者ID
	BookID          uint         // 图书ID
	ApprovedStaffID *uint        // 审批馆员ID（审批/拒绝时写入；系统自动拒绝为空）
	ReturnedStaffID *uint        // 归还经办馆员ID
	Quantity        int          // 借阅册数（>=1）
	Status          BorrowStatus // 借阅状态
	BorrowDate      *time.Time   // 借出日期（审批通过时间）
	DueDate         *time.Time   // 应还日期（借出日期+14天）
	ReturnDate      *time.Time   // 实际归还日期
	Note            string       // 备注（读者留言/拒绝原因/系统备注）
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBorrow 创建借阅申请（工厂方法）
// 初始状态为PENDING；可借数量与读者上限校验由Service在事务内完成
func NewBorrow(readerID, bookID uint, quantity int, note string) *Borrow {
	now := time.Now()
	return &Borrow{
		ReaderID:  readerID,
		BookID:    bookID,
		Quantity:  quantity,
		Status:    StatusPending,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo 检查是否可以转换到目标状态
func (b *Borrow) CanTransitionTo(target BorrowStatus) bool {
	allowed, exists := transitions[b.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
// 先校验流转合法性，成功后更新UpdatedAt（审计追踪）
func (b *Borrow) TransitionTo(target BorrowStatus) error {
	if !b.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	b.Status = target
	b.UpdatedAt = time.Now()
	return nil
}

// Approve 审批通过（领域行为）
// 前置条件：status==PENDING
// 副作用：写入借出日期、应还日期（+14天）、审批馆员
// 注意：不重查库存——申请创建时额度已占用，审批只需确认前置状态
func (b *Borrow) Approve(staffID uint, now time.Time) error {
	if err := b.TransitionTo(StatusApproved); err != nil {
		return err
	}
	due := now.Add(LoanPeriod)
	b.ApprovedStaffID = &staffID
	b.BorrowDate = &now
	b.DueDate = &due
	return nil
}

// Reject 馆员拒绝（领域行为）
// 前置条件：status==PENDING；记录经办馆员与拒绝原因
func (b *Borrow) Reject(staffID uint, note string) error {
	if err := b.TransitionTo(StatusRejected); err != nil {
		return err
	}
	b.ApprovedStaffID = &staffID
	if note != "" {
		b.Note = note
	}
	return nil
}

// RejectBySystem 系统自动拒绝（过期巡检用）
// 与馆员拒绝的区别：不记录经办馆员，备注使用系统固定文案
func (b *Borrow) RejectBySystem(note string) error {
	if err := b.TransitionTo(StatusRejected); err != nil {
		return err
	}
	b.Note = note
	return nil
}

// Cancel 读者取消（领域行为）
// 前置条件：status==PENDING；归属校验由Service完成
func (b *Borrow) Cancel() error {
	return b.TransitionTo(StatusCancelled)
}

// Return 确认归还（领域行为）
// 前置条件：status==APPROVED；记录归还日期与经办馆员
func (b *Borrow) Return(staffID uint, now time.Time) error {
	if err := b.TransitionTo(StatusReturned); err != nil {
		return err
	}
	b.ReturnedStaffID = &staffID
	b.ReturnDate = &now
	return nil
}

// IsOwnedBy 检查借阅记录是否属于指定读者
func (b *Borrow) IsOwnedBy(readerID uint) bool {
	return b.ReaderID == readerID
}

// IsCommitted 是否占用可借额度（PENDING与APPROVED计入在借量）
func (b *Borrow) IsCommitted() bool {
	return b.Status == StatusPending || b.Status == StatusApproved
}

// IsOverdue 是否逾期（派生谓词，纯函数）
// 口径：
// - 已借出：当前时间晚于应还日期
// - 已归还：归还日期晚于应还日期（逾期事实在归还时刻冻结，不随now变化）
// - 其余状态不存在逾期
func (b *Borrow) IsOverdue(now time.Time) bool {
	if b.DueDate == nil {
		return false
	}
	switch b.Status {
	case StatusApproved:
		return now.After(*b.DueDate)
	case StatusReturned:
		return b.ReturnDate != nil && b.ReturnDate.After(*b.DueDate)
	default:
		return false
	}
}
