package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
)

// GetBookUseCase 图书详情查询用例
// 设计说明:
// 1. 详情页需要展示"当前可借数量"，这是一个派生值:
//    可借数量 = 馆藏总量 - 在借总量(待审批+已借出的占用)
// 2. 可借数量由借阅领域服务实时计算，图书表不存冗余字段
type GetBookUseCase struct {
	bookService   book.Service
	borrowService borrow.Service
}

// NewGetBookUseCase 创建详情查询用例
func NewGetBookUseCase(bookService book.Service, borrowService borrow.Service) *GetBookUseCase {
	return &GetBookUseCase{
		bookService:   bookService,
		borrowService: borrowService,
	}
}

// GetBookResponse 详情响应DTO
type GetBookResponse struct {
	ID                uint   `json:"id"`
	ISBN              string `json:"isbn"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	Category          string `json:"category"`
	Publisher         string `json:"publisher"`
	PublishedYear     int    `json:"published_year"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	IsActive          bool   `json:"is_active"`
	CoverURL          string `json:"cover_url"`
	Description       string `json:"description"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// Execute 执行详情查询用例
func (uc *GetBookUseCase) Execute(ctx context.Context, bookID uint) (*GetBookResponse, error) {
	b, err := uc.bookService.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	available, err := uc.borrowService.AvailableQuantity(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &GetBookResponse{
		ID:                b.ID,
		ISBN:              b.ISBN,
		Title:             b.Title,
		Author:            b.Author,
		Category:          b.Category,
		Publisher:         b.Publisher,
		PublishedYear:     b.PublishedYear,
		TotalQuantity:     b.TotalQuantity,
		AvailableQuantity: available,
		IsActive:          b.IsActive,
		CoverURL:          b.CoverURL,
		Description:       b.Description,
		CreatedAt:         b.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}
