package book

import (
	"context"
)

// Repository 图书仓储接口（依赖倒置原则）
// 设计说明：
// 1. 由domain层定义接口，infrastructure层实现
// 2. 便于Mock测试，不依赖具体数据库实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID 悲观锁查询图书（SELECT FOR UPDATE）
	// 借阅准入控制用：锁定图书行，使"可借数量计算+新借阅写入"
	// 相对同一本书上的其他并发写成为原子单元，防止超借
	// 注意：必须在TxManager.Transaction内调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// Count 统计图书数量（onlyActive=true时只统计上架图书）
	Count(ctx context.Context, onlyActive bool) (int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int    // 页码（从1开始）
	PageSize   int    // 每页数量
	Keyword    string // 搜索关键词（搜索标题、作者、出版社）
	Category   string // 分类筛选
	OnlyActive bool   // 只看上架图书
	SortBy     string // 排序字段（title_asc, published_desc, created_at_desc）
}
