package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// BorrowInfo 借阅记录展示DTO
// 设计说明:
// 1. 列表/详情共用的富投影：带上读者和图书的展示字段，前端不用二次请求
// 2. is_overdue是派生值（已借出且超过应还日期），每次组装时现算，不落库
type BorrowInfo struct {
	ID         uint        `json:"id"`
	Reader     ReaderBrief `json:"reader"`
	Book       BookBrief   `json:"book"`
	Quantity   int         `json:"quantity"`
	Status     int         `json:"status"`
	StatusText string      `json:"status_text"`
	IsOverdue  bool        `json:"is_overdue"`
	BorrowDate string      `json:"borrow_date,omitempty"`
	DueDate    string      `json:"due_date,omitempty"`
	ReturnDate string      `json:"return_date,omitempty"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

// ReaderBrief 读者摘要
type ReaderBrief struct {
	ID         uint   `json:"id"`
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
}

// BookBrief 图书摘要
type BookBrief struct {
	ID     uint   `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// infoAssembler 借阅DTO组装器
// 批量组装时缓存已查过的读者/图书，避免同一页里重复查询
type infoAssembler struct {
	userRepo user.Repository
	bookRepo book.Repository
	users    map[uint]*user.User
	books    map[uint]*book.Book
}

func newInfoAssembler(userRepo user.Repository, bookRepo book.Repository) *infoAssembler {
	return &infoAssembler{
		userRepo: userRepo,
		bookRepo: bookRepo,
		users:    make(map[uint]*user.User),
		books:    make(map[uint]*book.Book),
	}
}

// assemble 组装单条借阅记录
// 读者/图书查不到时降级为只含ID的摘要（历史数据容错），不让整页失败
func (a *infoAssembler) assemble(ctx context.Context, b *borrow.Borrow, now time.Time) BorrowInfo {
	info := BorrowInfo{
		ID:         b.ID,
		Reader:     ReaderBrief{ID: b.ReaderID},
		Book:       BookBrief{ID: b.BookID},
		Quantity:   b.Quantity,
		Status:     int(b.Status),
		StatusText: b.Status.String(),
		IsOverdue:  b.IsOverdue(now),
		Note:       b.Note,
		CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:  b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}

	if b.BorrowDate != nil {
		info.BorrowDate = b.BorrowDate.Format("2006-01-02 15:04:05")
	}
	if b.DueDate != nil {
		info.DueDate = b.DueDate.Format("2006-01-02 15:04:05")
	}
	if b.ReturnDate != nil {
		info.ReturnDate = b.ReturnDate.Format("2006-01-02 15:04:05")
	}

	if reader := a.lookupUser(ctx, b.ReaderID); reader != nil {
		info.Reader.BusinessID = reader.BusinessID
		info.Reader.Name = reader.Name
	}
	if bk := a.lookupBook(ctx, b.BookID); bk != nil {
		info.Book.ISBN = bk.ISBN
		info.Book.Title = bk.Title
		info.Book.Author = bk.Author
	}

	return info
}

func (a *infoAssembler) lookupUser(ctx context.Context, id uint) *user.User {
	if u, ok := a.users[id]; ok {
		return u
	}
	u, err := a.userRepo.FindByID(ctx, id)
	if err != nil {
		u = nil
	}
	a.users[id] = u
	return u
}

func (a *infoAssembler) lookupBook(ctx context.Context, id uint) *book.Book {
	if b, ok := a.books[id]; ok {
		return b
	}
	b, err := a.bookRepo.FindByID(ctx, id)
	if err != nil {
		b = nil
	}
	a.books[id] = b
	return b
}
