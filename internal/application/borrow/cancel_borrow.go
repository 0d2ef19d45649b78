package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// CancelBorrowUseCase 读者取消借阅申请用例
// 只有申请人本人能取消，且只能取消待审批状态的申请
// 归属与状态校验由领域服务完成
type CancelBorrowUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewCancelBorrowUseCase 创建取消申请用例
func NewCancelBorrowUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *CancelBorrowUseCase {
	return &CancelBorrowUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// Execute 执行取消申请
func (uc *CancelBorrowUseCase) Execute(ctx context.Context, readerID, borrowID uint) (*BorrowInfo, error) {
	b, err := uc.borrowService.CancelBorrow(ctx, readerID, borrowID)
	if err != nil {
		return nil, err
	}

	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	info := assembler.assemble(ctx, b, time.Now())
	return &info, nil
}
