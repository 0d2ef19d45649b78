package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ManageBookUseCase 图书管理用例(馆员操作)
// 设计说明:
// 1. 聚合信息修改、馆藏调整、上下架三类小操作，避免为每个动作建一个文件
// 2. 馆藏总量允许下调至低于在借量，此后新申请会因可借额度不足被拒
type ManageBookUseCase struct {
	bookService book.Service
}

// NewManageBookUseCase 创建图书管理用例
func NewManageBookUseCase(bookService book.Service) *ManageBookUseCase {
	return &ManageBookUseCase{
		bookService: bookService,
	}
}

// UpdateBookRequest 修改图书信息请求DTO
type UpdateBookRequest struct {
	BookID      uint
	Title       string
	Author      string
	Category    string
	Publisher   string
	Description string
}

// UpdateInfo 修改图书基础信息
func (uc *ManageBookUseCase) UpdateInfo(ctx context.Context, req UpdateBookRequest) error {
	return uc.bookService.UpdateBookInfo(ctx,
		req.BookID, req.Title, req.Author, req.Category, req.Publisher, req.Description)
}

// UpdateQuantity 调整馆藏总量
func (uc *ManageBookUseCase) UpdateQuantity(ctx context.Context, bookID uint, quantity int) error {
	return uc.bookService.UpdateTotalQuantity(ctx, bookID, quantity)
}

// Deactivate 下架图书
// 下架后不再接受新的借阅申请，已有借阅不受影响
func (uc *ManageBookUseCase) Deactivate(ctx context.Context, bookID uint) error {
	return uc.bookService.DeactivateBook(ctx, bookID)
}

// Activate 重新上架图书
func (uc *ManageBookUseCase) Activate(ctx context.Context, bookID uint) error {
	return uc.bookService.ActivateBook(ctx, bookID)
}
