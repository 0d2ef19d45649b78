package borrow

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// maxTransitionRetries 条件更新输掉竞争后的最大重试次数
// 超过次数仍失败时按业务拒绝处理（ErrInvalidTransition），不无限自旋
const maxTransitionRetries = 3

// Service 借阅领域服务
// 设计说明：这是整个系统最核心的服务，职责分三块：
// 1. 准入控制（预订守卫）：创建借阅时在同一事务内完成
//    "可借数量检查+读者上限检查+落库"，防止并发超借
// 2. 生命周期流转：审批/拒绝/取消/归还，统一走条件更新纪律
// 3. 过期巡检：超时未审批的申请自动拒绝，释放占用的额度
type Service interface {
	// AvailableQuantity 图书当前可借数量
	// = 馆藏总册数 - 在借总量（PENDING+APPROVED），下限截断为0
	AvailableQuantity(ctx context.Context, bookID uint) (int, error)

	// CreateBorrow 读者发起借阅申请（准入控制）
	CreateBorrow(ctx context.Context, readerID, bookID uint, quantity int, note string) (*Borrow, error)

	// CancelBorrow 读者取消自己的待审批申请
	CancelBorrow(ctx context.Context, readerID, borrowID uint) (*Borrow, error)

	// ApproveBorrow 馆员审批通过
	ApproveBorrow(ctx context.Context, staffID, borrowID uint) (*Borrow, error)

	// RejectBorrow 馆员拒绝
	RejectBorrow(ctx context.Context, staffID, borrowID uint, note string) (*Borrow, error)

	// ConfirmReturn 馆员确认归还
	ConfirmReturn(ctx context.Context, staffID, borrowID uint) (*Borrow, error)

	// GetBorrowByID 查询单条借阅记录（归属校验由调用方按角色处理）
	GetBorrowByID(ctx context.Context, borrowID uint) (*Borrow, error)

	// ListBorrows 分页查询借阅记录，并返回同筛选条件下的状态统计
	ListBorrows(ctx context.Context, params ListParams) ([]*Borrow, int64, *StatusStats, error)

	// SweepExpired 过期巡检：自动拒绝超过48小时未审批的申请
	// 返回本次处理的记录数；单条失败只记日志不中断批次
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// service 借阅领域服务实现
type service struct {
	repo      Repository
	bookRepo  book.Repository
	userRepo  user.Repository
	txManager TxManager
}

// NewService 创建借阅领域服务
func NewService(repo Repository, bookRepo book.Repository, userRepo user.Repository, txManager TxManager) Service {
	return &service{
		repo:      repo,
		bookRepo:  bookRepo,
		userRepo:  userRepo,
		txManager: txManager,
	}
}

// AvailableQuantity 图书当前可借数量（非锁定读取，用于展示与统计）
// 注意：展示值只是瞬时快照，真正的准入判断在CreateBorrow的事务内完成
func (s *service) AvailableQuantity(ctx context.Context, bookID uint) (int, error) {
	b, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return 0, err
	}

	committed, err := s.repo.SumCommittedByBook(ctx, bookID)
	if err != nil {
		return 0, err
	}

	available := b.TotalQuantity - committed
	if available < 0 {
		// 防御性截断：馆员调小馆藏总数后，存量在借记录可能暂时超过上限
		available = 0
	}
	return available, nil
}

// CreateBorrow 读者发起借阅申请
//
// 核心问题：借阅超借（与商城库存超卖同构）
// 场景：某书可借1本，两个读者同时申请
// 错误实现：
//  1. 查询可借数量 → 1本
//  2. 判断够不够 → 够
//  3. 插入申请记录
//     结果：两个请求都通过了步骤2，借出2本（超借1本！）
//
// 正确实现：悲观锁+事务
//  1. SELECT FOR UPDATE 锁定读者行、图书行（固定顺序，避免死锁）
//  2. 在锁内重新计算在借总量、读者额度
//  3. 校验通过后插入PENDING记录
//  4. COMMIT释放锁
//
// 锁定顺序约定：先读者行、后图书行。所有走此路径的写入方保持同一顺序
func (s *service) CreateBorrow(ctx context.Context, readerID, bookID uint, quantity int, note string) (*Borrow, error) {
	// 1. 参数校验
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	// 2. 角色校验：只有读者可以发起借阅
	reader, err := s.userRepo.FindByID(ctx, readerID)
	if err != nil {
		return nil, err
	}
	if !reader.IsReader() {
		return nil, ErrForbidden
	}

	// 3. 事务内完成准入控制（有限次重试应对死锁）
	var result *Borrow
	for attempt := 0; ; attempt++ {
		err = s.txManager.Transaction(ctx, func(txCtx context.Context) error {
			// 锁定读者行：串行化同一读者的并发申请（跨图书的上限检查）
			if _, err := s.userRepo.LockByID(txCtx, readerID); err != nil {
				return err
			}

			// 锁定图书行：串行化同一本书上的并发申请
			bk, err := s.bookRepo.LockByID(txCtx, bookID)
			if err != nil {
				return err
			}

			if !bk.IsActive {
				return book.ErrBookInactive
			}

			// 在锁内重新计算在借总量（锁保证了读到的快照到提交前不变）
			committed, err := s.repo.SumCommittedByBook(txCtx, bookID)
			if err != nil {
				return err
			}
			available := bk.TotalQuantity - committed
			if available < quantity {
				return ErrInsufficientStock
			}

			// 读者全局上限：跨所有图书的PENDING+APPROVED总量不超过5本
			readerCommitted, err := s.repo.SumCommittedByReader(txCtx, readerID)
			if err != nil {
				return err
			}
			if readerCommitted+quantity > MaxConcurrentBorrows {
				return ErrLimitExceeded
			}

			// 校验通过，落库（仍在锁内）
			nb := NewBorrow(readerID, bookID, quantity, note)
			if err := s.repo.Create(txCtx, nb); err != nil {
				return err
			}

			result = nb
			return nil
		})

		if err == nil {
			return result, nil
		}
		// 死锁/锁等待超时可安全重试；业务错误直接返回
		if !apperrors.Is(err, ErrTxConflict) || attempt >= maxTransitionRetries {
			return nil, err
		}
	}
}

// CancelBorrow 读者取消自己的待审批申请
// 业务规则：只有记录归属的读者本人可以取消，且仅限PENDING状态
func (s *service) CancelBorrow(ctx context.Context, readerID, borrowID uint) (*Borrow, error) {
	return s.transition(ctx, borrowID, StatusPending, func(b *Borrow) error {
		if !b.IsOwnedBy(readerID) {
			return ErrForbidden
		}
		return b.Cancel()
	})
}

// ApproveBorrow 馆员审批通过
// 说明：不重查可借数量——申请创建时额度已占用（占位式预订），
// 审批只需确认记录仍是PENDING，用条件更新防住并发取消/拒绝/巡检
func (s *service) ApproveBorrow(ctx context.Context, staffID, borrowID uint) (*Borrow, error) {
	if err := s.requireStaff(ctx, staffID); err != nil {
		return nil, err
	}

	return s.transition(ctx, borrowID, StatusPending, func(b *Borrow) error {
		return b.Approve(staffID, time.Now())
	})
}

// RejectBorrow 馆员拒绝
func (s *service) RejectBorrow(ctx context.Context, staffID, borrowID uint, note string) (*Borrow, error) {
	if err := s.requireStaff(ctx, staffID); err != nil {
		return nil, err
	}

	return s.transition(ctx, borrowID, StatusPending, func(b *Borrow) error {
		return b.Reject(staffID, note)
	})
}

// ConfirmReturn 馆员确认归还
func (s *service) ConfirmReturn(ctx context.Context, staffID, borrowID uint) (*Borrow, error) {
	if err := s.requireStaff(ctx, staffID); err != nil {
		return nil, err
	}

	return s.transition(ctx, borrowID, StatusApproved, func(b *Borrow) error {
		return b.Return(staffID, time.Now())
	})
}

// GetBorrowByID 查询单条借阅记录
func (s *service) GetBorrowByID(ctx context.Context, borrowID uint) (*Borrow, error) {
	return s.repo.FindByID(ctx, borrowID)
}

// ListBorrows 分页查询借阅记录+同筛选条件的状态统计
func (s *service) ListBorrows(ctx context.Context, params ListParams) ([]*Borrow, int64, *StatusStats, error) {
	list, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, nil, err
	}

	stats, err := s.repo.CountStats(ctx, params, time.Now())
	if err != nil {
		return nil, 0, nil, err
	}

	return list, total, stats, nil
}

// SweepExpired 过期巡检
// 设计说明：
// 1. 巡检只是"又一个写入方"，与交互请求共用条件更新纪律：
//    写入以status==PENDING为前提，输给并发的取消/审批就跳过该条
// 2. 幂等：已拒绝的记录不会再次命中扫描条件，重复执行无副作用
// 3. 单条失败隔离：记日志后继续处理其余记录，不中断批次
func (s *service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	const batchSize = 200

	before := now.Add(-PendingExpireAfter)
	expired, err := s.repo.FindExpiredPending(ctx, before, batchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, b := range expired {
		if err := b.RejectBySystem(SystemRejectNote); err != nil {
			// 理论上不可达：扫描条件已限定PENDING
			log.Printf("[sweeper] 借阅记录%d状态异常: %v", b.ID, err)
			continue
		}

		err := s.repo.UpdateStatus(ctx, b, StatusPending)
		if err != nil {
			if apperrors.Is(err, ErrStatusConflict) {
				// 输掉竞争：读者已取消或馆员已处理，无需系统介入
				continue
			}
			log.Printf("[sweeper] 自动拒绝借阅记录%d失败: %v", b.ID, err)
			continue
		}
		swept++
	}

	return swept, nil
}

// =========================================
// 内部辅助
// =========================================

// requireStaff 校验操作者必须是馆员
func (s *service) requireStaff(ctx context.Context, staffID uint) error {
	staff, err := s.userRepo.FindByID(ctx, staffID)
	if err != nil {
		return err
	}
	if !staff.IsStaff() {
		return ErrForbidden
	}
	return nil
}

// transition 统一的状态流转路径：读取 → 领域校验 → 条件更新
// 并发纪律：
// 1. mutate内先做归属/前置状态校验，再调用实体的TransitionTo
// 2. UpdateStatus以expected为前提做compare-and-set
// 3. 输掉竞争（ErrStatusConflict）时重读记录、重新校验后重试；
//    重读发现前置状态已不满足 → 这是真正的业务拒绝，直接返回
func (s *service) transition(ctx context.Context, borrowID uint, expected BorrowStatus, mutate func(*Borrow) error) (*Borrow, error) {
	for attempt := 0; attempt <= maxTransitionRetries; attempt++ {
		b, err := s.repo.FindByID(ctx, borrowID)
		if err != nil {
			return nil, err
		}

		// 领域校验（归属、前置状态）；失败即业务拒绝，不重试
		if err := mutate(b); err != nil {
			return nil, err
		}

		err = s.repo.UpdateStatus(ctx, b, expected)
		if err == nil {
			return b, nil
		}
		if !apperrors.Is(err, ErrStatusConflict) {
			return nil, err
		}
		// 输掉竞争：循环重读后重试；若状态确已变更，下轮mutate会返回业务错误
	}

	return nil, ErrInvalidTransition
}
