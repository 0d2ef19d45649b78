package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/borrow"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// borrowRepository 借阅仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/borrow/repository.go定义的接口
// 2. UpdateStatus是唯一的写状态入口：条件更新（UPDATE ... WHERE status=expected），
//    RowsAffected==0时区分"记录不存在"与"输掉竞争"
// 3. 在借总量用SUM聚合实时计算，不维护冗余计数器
//    （冗余计数需要额外的失效/对账机制，全扫描在(book_id,status)索引下足够快）
type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository 创建借阅仓储
func NewBorrowRepository(db *gorm.DB) borrow.Repository {
	return &borrowRepository{db: db}
}

// Create 创建借阅记录
// 注意：必须在事务中调用（准入控制的检查与写入是一个原子单元）
func (r *borrowRepository) Create(ctx context.Context, b *borrow.Borrow) error {
	model := toBorrowModel(b)

	db := r.getDB(ctx)
	if err := db.Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找借阅记录
func (r *borrowRepository) FindByID(ctx context.Context, id uint) (*borrow.Borrow, error) {
	var model BorrowModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrBorrowNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}

	return toBorrowEntity(&model), nil
}

// UpdateStatus 条件状态更新（compare-and-set）
// 执行：UPDATE borrows SET ... WHERE id=? AND status=?
// 说明：WHERE带上expected状态，数据库层面保证只有前置状态仍成立的
// 写入方能赢；RowsAffected==0时再查一次区分原因（图书仓储UpdateStock同款套路）
func (r *borrowRepository) UpdateStatus(ctx context.Context, b *borrow.Borrow, expected borrow.BorrowStatus) error {
	db := r.getDB(ctx)
	result := db.Model(&BorrowModel{}).
		Where("id = ?", b.ID).
		Where("status = ?", int(expected)).
		Updates(map[string]interface{}{
			"status":            int(b.Status),
			"approved_staff_id": b.ApprovedStaffID,
			"returned_staff_id": b.ReturnedStaffID,
			"borrow_date":       b.BorrowDate,
			"due_date":          b.DueDate,
			"return_date":       b.ReturnDate,
			"note":              b.Note,
			"updated_at":        b.UpdatedAt,
		})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅状态失败")
	}

	if result.RowsAffected == 0 {
		// 可能是记录不存在，或者状态已被其他写入方变更
		// 再查一次确定原因
		var model BorrowModel
		if err := db.First(&model, b.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return borrow.ErrBorrowNotFound
			}
			return apperrors.Wrap(err, "查询借阅记录失败")
		}
		// 记录存在，说明输掉了并发竞争
		return borrow.ErrStatusConflict
	}

	return nil
}

// SumCommittedByBook 某图书的在借总量（PENDING+APPROVED的quantity之和）
// 说明：必须使用getDB(ctx)——准入控制在事务内、持有图书行锁时调用，
// 读到的快照到提交前不会被并发写改变
func (r *borrowRepository) SumCommittedByBook(ctx context.Context, bookID uint) (int, error) {
	var total int64
	err := r.getDB(ctx).Model(&BorrowModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("book_id = ?", bookID).
		Where("status IN ?", committedStatuses()).
		Scan(&total).Error

	if err != nil {
		return 0, apperrors.Wrap(err, "统计在借总量失败")
	}
	return int(total), nil
}

// SumCommittedByReader 某读者的在借总量（跨所有图书）
func (r *borrowRepository) SumCommittedByReader(ctx context.Context, readerID uint) (int, error) {
	var total int64
	err := r.getDB(ctx).Model(&BorrowModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("reader_id = ?", readerID).
		Where("status IN ?", committedStatuses()).
		Scan(&total).Error

	if err != nil {
		return 0, apperrors.Wrap(err, "统计读者在借总量失败")
	}
	return int(total), nil
}

// List 分页查询借阅记录
func (r *borrowRepository) List(ctx context.Context, params borrow.ListParams) ([]*borrow.Borrow, int64, error) {
	var models []BorrowModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&BorrowModel{}), params, true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Order("borrows.created_at DESC").
		Limit(params.PageSize).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅列表失败")
	}

	borrows := make([]*borrow.Borrow, len(models))
	for i, model := range models {
		borrows[i] = toBorrowEntity(&model)
	}

	return borrows, total, nil
}

// CountStats 按当前筛选条件统计各状态数量
// 说明：三个计数使用同一套筛选条件（状态条件除外），
// overdue按派生口径统计，不依赖存储状态：
// 在借中now已晚于应还日期的，加上归还时已晚于应还日期的
func (r *borrowRepository) CountStats(ctx context.Context, params borrow.ListParams, now time.Time) (*borrow.StatusStats, error) {
	stats := &borrow.StatusStats{}
	db := r.db.WithContext(ctx)

	// 状态维度的统计忽略筛选条件里的status（否则除被筛状态外恒为0）
	base := params
	base.Status = 0

	if err := r.applyFilter(db.Model(&BorrowModel{}), base, false).
		Where("borrows.status = ?", int(borrow.StatusPending)).
		Count(&stats.Pending).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计待审批数量失败")
	}

	if err := r.applyFilter(db.Model(&BorrowModel{}), base, false).
		Where("borrows.status = ?", int(borrow.StatusApproved)).
		Count(&stats.Approved).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计已借出数量失败")
	}

	if err := r.applyFilter(db.Model(&BorrowModel{}), base, false).
		Where("borrows.due_date IS NOT NULL").
		Where("(borrows.status = ? AND borrows.due_date < ?) OR (borrows.status = ? AND borrows.return_date > borrows.due_date)",
			int(borrow.StatusApproved), now, int(borrow.StatusReturned)).
		Count(&stats.Overdue).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计逾期数量失败")
	}

	return stats, nil
}

// FindExpiredPending 查询过期的待审批记录（后台巡检用）
// 走(status, created_at)复合索引，按申请时间升序、限量返回
func (r *borrowRepository) FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*borrow.Borrow, error) {
	var models []BorrowModel
	err := r.db.WithContext(ctx).
		Where("status = ?", int(borrow.StatusPending)).
		Where("created_at <= ?", before).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询过期借阅申请失败")
	}

	borrows := make([]*borrow.Borrow, len(models))
	for i, model := range models {
		borrows[i] = toBorrowEntity(&model)
	}

	return borrows, nil
}

// CountByStatus 按状态统计总量（统计模块用）
func (r *borrowRepository) CountByStatus(ctx context.Context, status borrow.BorrowStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BorrowModel{}).
		Where("status = ?", int(status)).
		Count(&count).Error

	if err != nil {
		return 0, apperrors.Wrap(err, "统计借阅数量失败")
	}
	return count, nil
}

// =========================================
// 内部辅助
// =========================================

// applyFilter 应用列表筛选条件
// withStatus=false时跳过状态条件（CountStats按状态分桶时使用）
func (r *borrowRepository) applyFilter(query *gorm.DB, params borrow.ListParams, withStatus bool) *gorm.DB {
	if params.ReaderID > 0 {
		query = query.Where("borrows.reader_id = ?", params.ReaderID)
	}
	if params.BookID > 0 {
		query = query.Where("borrows.book_id = ?", params.BookID)
	}
	if withStatus && params.Status > 0 {
		query = query.Where("borrows.status = ?", int(params.Status))
	}
	if !params.CreatedFrom.IsZero() {
		query = query.Where("borrows.created_at >= ?", params.CreatedFrom)
	}
	if !params.CreatedTo.IsZero() {
		query = query.Where("borrows.created_at <= ?", params.CreatedTo)
	}
	if params.Keyword != "" {
		// 关键词匹配备注或图书标题（标题需要联表）
		keyword := "%" + params.Keyword + "%"
		query = query.
			Joins("JOIN books ON books.id = borrows.book_id").
			Where("borrows.note LIKE ? OR books.title LIKE ?", keyword, keyword)
	}
	return query
}

// committedStatuses 占用可借额度的状态集合
func committedStatuses() []int {
	return []int{int(borrow.StatusPending), int(borrow.StatusApproved)}
}

// toBorrowModel 领域实体 → GORM模型
func toBorrowModel(b *borrow.Borrow) *BorrowModel {
	return &BorrowModel{
		ID:              b.ID,
		ReaderID:        b.ReaderID,
		BookID:          b.BookID,
		ApprovedStaffID: b.ApprovedStaffID,
		ReturnedStaffID: b.ReturnedStaffID,
		Quantity:        b.Quantity,
		Status:          int(b.Status),
		BorrowDate:      b.BorrowDate,
		DueDate:         b.DueDate,
		ReturnDate:      b.ReturnDate,
		Note:            b.Note,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// toBorrowEntity GORM模型 → 领域实体
func toBorrowEntity(model *BorrowModel) *borrow.Borrow {
	return &borrow.Borrow{
		ID:              model.ID,
		ReaderID:        model.ReaderID,
		BookID:          model.BookID,
		ApprovedStaffID: model.ApprovedStaffID,
		ReturnedStaffID: model.ReturnedStaffID,
		Quantity:        model.Quantity,
		Status:          borrow.BorrowStatus(model.Status),
		BorrowDate:      model.BorrowDate,
		DueDate:         model.DueDate,
		ReturnDate:      model.ReturnDate,
		Note:            model.Note,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
// 说明：事务传递机制，准入控制的聚合查询与写入必须走事务DB
func (r *borrowRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}