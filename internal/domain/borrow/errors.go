package borrow

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrBorrowNotFound 借阅记录不存在
	ErrBorrowNotFound = apperrors.ErrBorrowNotFound

	// ErrForbidden 无权操作（角色不符或非本人记录）
	ErrForbidden = apperrors.ErrForbidden

	// ErrInvalidTransition 借阅状态不允许此操作（前置状态不符）
	ErrInvalidTransition = apperrors.ErrInvalidTransition

	// ErrInsufficientStock 可借数量不足
	ErrInsufficientStock = apperrors.ErrInsufficientStock

	// ErrLimitExceeded 超出读者借阅上限（全局5本）
	ErrLimitExceeded = apperrors.ErrLimitExceeded

	// ErrInvalidQuantity 借阅册数不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "借阅册数必须大于0")

	// ErrStatusConflict 条件更新失败：记录状态已被其他写入方抢先变更
	// 说明：这是"输掉并发竞争"的信号，不是业务拒绝；
	// Service会重读记录、重验前置条件后做有限次重试
	ErrStatusConflict = apperrors.New(apperrors.ErrCodeBusinessError, "借阅状态已变更，请重试")

	// ErrTxConflict 事务冲突（死锁/锁等待超时），可安全重试
	ErrTxConflict = apperrors.New(apperrors.ErrCodeDatabaseError, "数据库事务冲突")
)
