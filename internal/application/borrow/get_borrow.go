package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// GetBorrowUseCase 借阅详情查询用例
// 权限规则:读者只能看自己的记录,馆员可以看任何记录
// 归属校验放在应用层(领域服务的GetBorrowByID不感知请求者身份)
type GetBorrowUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewGetBorrowUseCase 创建详情查询用例
func NewGetBorrowUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *GetBorrowUseCase {
	return &GetBorrowUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// GetBorrowRequest 详情查询请求DTO
type GetBorrowRequest struct {
	BorrowID      uint
	RequesterID   uint   // 请求者ID(从JWT中提取)
	RequesterRole string // 请求者角色
}

// Execute 执行详情查询
func (uc *GetBorrowUseCase) Execute(ctx context.Context, req GetBorrowRequest) (*BorrowInfo, error) {
	b, err := uc.borrowService.GetBorrowByID(ctx, req.BorrowID)
	if err != nil {
		return nil, err
	}

	// 读者只能查看自己的借阅记录
	if req.RequesterRole != string(user.RoleStaff) && !b.IsOwnedBy(req.RequesterID) {
		return nil, apperrors.ErrForbidden
	}

	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	info := assembler.assemble(ctx, b, time.Now())
	return &info, nil
}
