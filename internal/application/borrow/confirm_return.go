package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// ConfirmReturnUseCase 馆员确认归还用例
// 归还即记录实际归还日期并释放占用的可借额度
// 逾期归还照常受理,是否产生滞纳金不在本系统范围内
type ConfirmReturnUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewConfirmReturnUseCase 创建确认归还用例
func NewConfirmReturnUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *ConfirmReturnUseCase {
	return &ConfirmReturnUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// Execute 执行确认归还
func (uc *ConfirmReturnUseCase) Execute(ctx context.Context, staffID, borrowID uint) (*BorrowInfo, error) {
	b, err := uc.borrowService.ConfirmReturn(ctx, staffID, borrowID)
	if err != nil {
		return nil, err
	}

	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	info := assembler.assemble(ctx, b, time.Now())
	return &info, nil
}
