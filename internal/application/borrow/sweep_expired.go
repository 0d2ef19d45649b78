package borrow

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/borrow"
)

// SweepExpiredUseCase 过期申请巡检用例
// 由后台定时任务周期性触发,也暴露给馆员手动触发
// 幂等:重复执行只会处理仍处于待审批且已过期的记录
type SweepExpiredUseCase struct {
	borrowService borrow.Service
}

// NewSweepExpiredUseCase 创建巡检用例
func NewSweepExpiredUseCase(borrowService borrow.Service) *SweepExpiredUseCase {
	return &SweepExpiredUseCase{borrowService: borrowService}
}

// SweepResult 巡检结果
type SweepResult struct {
	Rejected int    `json:"rejected"` // 本次自动拒绝的申请数
	SweptAt  string `json:"swept_at"`
}

// Execute 执行一次巡检
func (uc *SweepExpiredUseCase) Execute(ctx context.Context) (*SweepResult, error) {
	now := time.Now()
	n, err := uc.borrowService.SweepExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	if n > 0 {
		log.Printf("过期巡检完成: 自动拒绝%d条申请", n)
	}

	return &SweepResult{
		Rejected: n,
		SweptAt:  now.Format("2006-01-02 15:04:05"),
	}, nil
}
