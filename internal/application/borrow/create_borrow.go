package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
)

// CreateBorrowUseCase 发起借阅申请用例
// 教学要点:这是整个项目最核心的用例
// 涉及:事务处理、并发控制、业务规则校验
//
// 核心问题:超借
// 场景:某书可借3册,100个读者同时申请
// 错误实现:
//  1. 查询在借总量 → 0
//  2. 判断够不够 → 够
//  3. 插入申请
//     结果:100个请求都通过了步骤2,最后批出100册(超借97册!)
//
// 正确实现:悲观锁+事务内重算
//  1. SELECT FOR UPDATE 锁定读者行、图书行(固定顺序,防死锁)
//  2. 锁内重新聚合在借总量,判断可借额度与读者上限
//  3. 插入PENDING申请
//  4. COMMIT释放锁
//
// 以上流程封装在borrow.Service.CreateBorrow中,应用层只做编排与DTO转换
type CreateBorrowUseCase struct {
	borrowService borrow.Service
	userRepo      user.Repository
	bookRepo      book.Repository
}

// NewCreateBorrowUseCase 创建借阅申请用例
func NewCreateBorrowUseCase(
	borrowService borrow.Service,
	userRepo user.Repository,
	bookRepo book.Repository,
) *CreateBorrowUseCase {
	return &CreateBorrowUseCase{
		borrowService: borrowService,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
	}
}

// CreateBorrowRequest 借阅申请请求DTO
type CreateBorrowRequest struct {
	ReaderID uint   // 读者ID(从JWT中提取)
	BookID   uint   // 图书ID
	Quantity int    // 申请册数
	Note     string // 申请备注
}

// Execute 执行借阅申请用例
func (uc *CreateBorrowUseCase) Execute(ctx context.Context, req CreateBorrowRequest) (*BorrowInfo, error) {
	b, err := uc.borrowService.CreateBorrow(ctx, req.ReaderID, req.BookID, req.Quantity, req.Note)
	if err != nil {
		return nil, err
	}

	assembler := newInfoAssembler(uc.userRepo, uc.bookRepo)
	info := assembler.assemble(ctx, b, time.Now())
	return &info, nil
}
