package book

import (
	"context"
	"regexp"
)

// Service 图书领域服务接口
// 设计说明：
// 1. 领域服务封装跨实体的业务逻辑和业务规则校验
// 2. 不依赖具体的Repository实现（依赖倒置）
// 3. 权限（只有馆员可维护馆藏）由接口层的角色中间件保证
type Service interface {
	// PublishBook 图书上架
	// 业务规则：
	// - ISBN格式必须合法（10位或13位数字）
	// - 馆藏册数必须>=0
	// - ISBN不能重复
	PublishBook(ctx context.Context, isbn, title, author, category, publisher string, publishedYear, totalQuantity int, coverURL, description string) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// UpdateBookInfo 更新图书基本信息
	UpdateBookInfo(ctx context.Context, id uint, title, author, category, publisher, description string) error

	// UpdateTotalQuantity 调整馆藏总册数
	UpdateTotalQuantity(ctx context.Context, id uint, quantity int) error

	// DeactivateBook 下架图书（停止新借阅，保留历史借阅记录）
	DeactivateBook(ctx context.Context, id uint) error

	// ActivateBook 重新上架
	ActivateBook(ctx context.Context, id uint) error

	// ListBooks 分页查询图书列表（公开接口）
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// PublishBook 图书上架
func (s *service) PublishBook(ctx context.Context, isbn, title, author, category, publisher string, publishedYear, totalQuantity int, coverURL, description string) (*Book, error) {
	// 1. ISBN格式校验
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	// 2. 馆藏册数校验
	if totalQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	// 3. 检查ISBN是否已存在
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && err != ErrBookNotFound {
		return nil, err
	}

	// 4. 创建图书实体并持久化
	b := NewBook(isbn, title, author, category, publisher, publishedYear, totalQuantity, coverURL, description)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateBookInfo 更新图书基本信息
func (s *service) UpdateBookInfo(ctx context.Context, id uint, title, author, category, publisher, description string) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	b.UpdateInfo(title, author, category, publisher, description)
	return s.repo.Update(ctx, b)
}

// UpdateTotalQuantity 调整馆藏总册数
func (s *service) UpdateTotalQuantity(ctx context.Context, id uint, quantity int) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := b.SetTotalQuantity(quantity); err != nil {
		return err
	}
	return s.repo.Update(ctx, b)
}

// DeactivateBook 下架图书
func (s *service) DeactivateBook(ctx context.Context, id uint) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	b.Deactivate()
	return s.repo.Update(ctx, b)
}

// ActivateBook 重新上架
func (s *service) ActivateBook(ctx context.Context, id uint) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	b.Activate()
	return s.repo.Update(ctx, b)
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// isValidISBN 校验ISBN格式
// 支持ISBN-10（10位数字）与ISBN-13（13位数字），允许分隔符
// 简化实现：只检查位数（生产环境应校验校验位）
func isValidISBN(isbn string) bool {
	re := regexp.MustCompile(`[^0-9Xx]`)
	clean := re.ReplaceAllString(isbn, "")

	length := len(clean)
	return length == 10 || length == 13
}
