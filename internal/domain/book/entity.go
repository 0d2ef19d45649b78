package book

import (
	"time"
)

// Book 图书实体（聚合根）
// DDD设计说明：
// 1. Book是馆藏图书聚合的根实体，TotalQuantity是馆藏总册数（物理库存）
// 2. 借阅模块只读取TotalQuantity与IsActive两个字段，可借数量由
//    借阅台账（borrow）根据在借记录实时推导，不在这里冗余存储
// 3. IsActive=false表示下架（停止新借阅，不影响已有借阅记录）
// 4. 封面图片只保存URL，文件本身存放在外部对象存储
type Book struct {
	ID            uint
	ISBN          string // ISBN号（国际标准书号）
	Title         string // 书名
	Author        string // 作者
	Category      string // 分类
	Publisher     string // 出版社
	PublishedYear int    // 出版年份
	TotalQuantity int    // 馆藏总册数
	IsActive      bool   // 是否可借（上架状态）
	CoverURL      string // 封面图片URL
	Description   string // 图书简介
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBook 创建新图书（工厂方法）
// totalQuantity为馆藏册数，必须>=0；新书默认上架
func NewBook(isbn, title, author, category, publisher string, publishedYear, totalQuantity int, coverURL, description string) *Book {
	now := time.Now()
	return &Book{
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		Category:      category,
		Publisher:     publisher,
		PublishedYear: publishedYear,
		TotalQuantity: totalQuantity,
		IsActive:      true,
		CoverURL:      coverURL,
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateInfo 更新图书基本信息（领域行为）
func (b *Book) UpdateInfo(title, author, category, publisher, description string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if category != "" {
		b.Category = category
	}
	if publisher != "" {
		b.Publisher = publisher
	}
	if description != "" {
		b.Description = description
	}
	b.UpdatedAt = time.Now()
}

// SetTotalQuantity 调整馆藏总册数（领域行为）
// 业务规则：总册数不能为负数
// 注意：调小总册数不影响已存在的借阅记录；此后新申请按新上限做准入控制
func (b *Book) SetTotalQuantity(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	b.TotalQuantity = quantity
	b.UpdatedAt = time.Now()
	return nil
}

// Deactivate 下架（停止新借阅）
func (b *Book) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now()
}

// Activate 重新上架
func (b *Book) Activate() {
	b.IsActive = true
	b.UpdatedAt = time.Now()
}
