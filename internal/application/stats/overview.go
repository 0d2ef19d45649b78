package stats

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// OverviewUseCase 运营概览统计用例(馆员首页看板)
// 设计说明:
// 1. 汇总读者数、馆藏数、各状态借阅数、当前逾期数
// 2. 全部实时聚合,不做缓存(数据量在单馆规模下查询很快,
//    后续量级上来可以加Redis缓存+短TTL)
type OverviewUseCase struct {
	userRepo   user.Repository
	bookRepo   book.Repository
	borrowRepo borrow.Repository
}

// NewOverviewUseCase 创建概览统计用例
func NewOverviewUseCase(
	userRepo user.Repository,
	bookRepo book.Repository,
	borrowRepo borrow.Repository,
) *OverviewUseCase {
	return &OverviewUseCase{
		userRepo:   userRepo,
		bookRepo:   bookRepo,
		borrowRepo: borrowRepo,
	}
}

// OverviewResponse 概览响应DTO
type OverviewResponse struct {
	ReaderCount     int64 `json:"reader_count"`      // 注册读者数
	ActiveBookCount int64 `json:"active_book_count"` // 在架图书种数
	PendingCount    int64 `json:"pending_count"`     // 待审批申请数
	ApprovedCount   int64 `json:"approved_count"`    // 在借中数
	OverdueCount    int64 `json:"overdue_count"`     // 当前逾期数
	ReturnedCount   int64 `json:"returned_count"`    // 累计归还数
}

// Execute 执行概览统计
func (uc *OverviewUseCase) Execute(ctx context.Context) (*OverviewResponse, error) {
	resp := &OverviewResponse{}

	readers, err := uc.userRepo.CountByRole(ctx, user.RoleReader)
	if err != nil {
		return nil, err
	}
	resp.ReaderCount = readers

	activeBooks, err := uc.bookRepo.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	resp.ActiveBookCount = activeBooks

	// 逾期数按派生口径统计(已借出且超过应还日期)
	stats, err := uc.borrowRepo.CountStats(ctx, borrow.ListParams{}, time.Now())
	if err != nil {
		return nil, err
	}
	resp.PendingCount = stats.Pending
	resp.ApprovedCount = stats.Approved
	resp.OverdueCount = stats.Overdue

	returned, err := uc.borrowRepo.CountByStatus(ctx, borrow.StatusReturned)
	if err != nil {
		return nil, err
	}
	resp.ReturnedCount = returned

	return resp, nil
}
