package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// ListBorrowsUseCase 借阅列表查询用例
// 设计说明:
// 1. 读者固定只能查自己的记录(强制覆盖reader_id筛选)
// 2. 馆员可以按读者、图书、状态、时间区间、关键词任意组合筛选
// 3. 响应附带状态统计(待审批/已借出/逾期数量),供管理端列表页
//    顶部的计数标签使用。统计沿用读者/图书/时间/关键词筛选,
//    但不受status筛选影响:按状态筛选时各计数标签仍显示全量,
//    否则除被筛状态外恒为0
type ListBorrowsUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewListBorrowsUseCase 创建列表查询用例
func NewListBorrowsUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *ListBorrowsUseCase {
	return &ListBorrowsUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// ListBorrowsRequest 列表查询请求DTO
type ListBorrowsRequest struct {
	RequesterID   uint   // 请求者ID(从JWT中提取)
	RequesterRole string // 请求者角色

	ReaderID    uint      // 按读者筛选(仅馆员可用)
	BookID      uint      // 按图书筛选
	Status      int       // 按状态筛选(0表示不筛)
	CreatedFrom time.Time // 申请时间下界
	CreatedTo   time.Time // 申请时间上界
	Keyword     string    // 关键词(匹配备注或图书标题)
	Page        int       // 页码(从1开始)
	PageSize    int       // 每页数量
}

// StatusStatsDTO 状态统计DTO
type StatusStatsDTO struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Overdue  int64 `json:"overdue"`
}

// ListBorrowsResponse 列表查询响应DTO
type ListBorrowsResponse struct {
	List       []BorrowInfo   `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Stats      StatusStatsDTO `json:"stats"`
}

// Execute 执行列表查询
func (uc *ListBorrowsUseCase) Execute(ctx context.Context, req ListBorrowsRequest) (*ListBorrowsResponse, error) {
	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 2. 权限收口:读者强制只查自己
	readerID := req.ReaderID
	if req.RequesterRole != string(user.RoleStaff) {
		readerID = req.RequesterID
	}

	params := borrow.ListParams{
		ReaderID:    readerID,
		BookID:      req.BookID,
		Status:      borrow.BorrowStatus(req.Status),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
		Keyword:     req.Keyword,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	// 3. 查询列表+统计
	borrows, total, stats, err := uc.borrowService.ListBorrows(ctx, params)
	if err != nil {
		return nil, err
	}

	// 4. 组装富投影(is_overdue统一用同一个now计算,保证整页口径一致)
	now := time.Now()
	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	list := make([]BorrowInfo, len(borrows))
	for i, b := range borrows {
		list[i] = assembler.assemble(ctx, b, now)
	}

	// 5. 计算总页数
	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListBorrowsResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
		Stats: StatusStatsDTO{
			Pending:  stats.Pending,
			Approved: stats.Approved,
			Overdue:  stats.Overdue,
		},
	}, nil
}
