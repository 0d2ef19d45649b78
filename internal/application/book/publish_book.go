package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// PublishBookUseCase 图书入馆用例
// 设计说明:
// 1. 应用层负责用例编排,协调领域服务完成业务流程
// 2. 输入输出使用DTO(Data Transfer Object),与HTTP层解耦
// 3. 此用例比较简单,只需调用领域服务即可
type PublishBookUseCase struct {
	bookService book.Service
}

// NewPublishBookUseCase 创建入馆用例
func NewPublishBookUseCase(bookService book.Service) *PublishBookUseCase {
	return &PublishBookUseCase{
		bookService: bookService,
	}
}

// PublishBookRequest 入馆请求DTO
type PublishBookRequest struct {
	ISBN          string // ISBN号
	Title         string // 书名
	Author        string // 作者
	Category      string // 分类
	Publisher     string // 出版社
	PublishedYear int    // 出版年份
	TotalQuantity int    // 馆藏总量
	CoverURL      string // 封面图URL
	Description   string // 图书简介
	StaffID       uint   // 经办馆员ID(从认证中间件获取)
}

// PublishBookResponse 入馆响应DTO
type PublishBookResponse struct {
	ID            uint   `json:"id"`
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Category      string `json:"category"`
	Publisher     string `json:"publisher"`
	PublishedYear int    `json:"published_year"`
	TotalQuantity int    `json:"total_quantity"`
	IsActive      bool   `json:"is_active"`
	CoverURL      string `json:"cover_url"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
}

// Execute 执行入馆用例
// 说明:
// 1. 应用层不直接操作Repository,通过领域服务间接操作
// 2. 业务规则校验由领域服务负责(ISBN格式、馆藏数量、ISBN重复检查等)
// 3. 应用层只负责流程编排
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*PublishBookResponse, error) {
	b, err := uc.bookService.PublishBook(ctx,
		req.ISBN, req.Title, req.Author, req.Category, req.Publisher,
		req.PublishedYear, req.TotalQuantity, req.CoverURL, req.Description)
	if err != nil {
		return nil, err
	}

	return &PublishBookResponse{
		ID:            b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Author:        b.Author,
		Category:      b.Category,
		Publisher:     b.Publisher,
		PublishedYear: b.PublishedYear,
		TotalQuantity: b.TotalQuantity,
		IsActive:      b.IsActive,
		CoverURL:      b.CoverURL,
		Description:   b.Description,
		CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}
