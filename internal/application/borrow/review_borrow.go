package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// ReviewBorrowUseCase 馆员审批用例(通过/拒绝)
// 设计说明:
// 1. 审批通过时由领域服务落借出日期与应还日期(借期14天)
// 2. 拒绝时可附拒绝原因,写入备注
// 3. 两个动作共享依赖,聚合在一个用例中
type ReviewBorrowUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewReviewBorrowUseCase 创建审批用例
func NewReviewBorrowUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *ReviewBorrowUseCase {
	return &ReviewBorrowUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// Approve 审批通过
func (uc *ReviewBorrowUseCase) Approve(ctx context.Context, staffID, borrowID uint) (*BorrowInfo, error) {
	b, err := uc.borrowService.ApproveBorrow(ctx, staffID, borrowID)
	if err != nil {
		return nil, err
	}
	return uc.toInfo(ctx, b), nil
}

// Reject 拒绝申请
func (uc *ReviewBorrowUseCase) Reject(ctx context.Context, staffID, borrowID uint, note string) (*BorrowInfo, error) {
	b, err := uc.borrowService.RejectBorrow(ctx, staffID, borrowID, note)
	if err != nil {
		return nil, err
	}
	return uc.toInfo(ctx, b), nil
}

func (uc *ReviewBorrowUseCase) toInfo(ctx context.Context, b *borrow.Borrow) *BorrowInfo {
	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	info := assembler.assemble(ctx, b, time.Now())
	return &info
}
