package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/borrow"
)

// TxManager 事务管理器
// 设计说明：
// 1. 封装GORM的Transaction方法，实现domain/borrow.TxManager接口
// 2. 通过context传递事务DB（避免全局变量）
// 3. MySQL死锁(1213)/锁等待超时(1205)转换为ErrTxConflict，
//    调用方（借阅准入控制）据此做有限次重试
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// 说明：
// 1. fn函数内的所有Repository操作都会在同一事务中执行
// 2. fn返回error时自动ROLLBACK，返回nil时自动COMMIT
// 3. 通过context.WithValue传递事务DB，Repository的getDB方法从context提取
//
// 使用示例（借阅准入控制）：
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    // 1. 锁定读者行、图书行
//	    if _, err := userRepo.LockByID(ctx, readerID); err != nil {
//	        return err
//	    }
//	    book, err := bookRepo.LockByID(ctx, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    // 2. 锁内重算在借总量并校验
//	    // 3. 插入PENDING记录
//	    return borrowRepo.Create(ctx, newBorrow) // nil则提交，非nil则回滚
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})

	if err != nil && isLockConflictError(err) {
		return borrow.ErrTxConflict
	}
	return err
}
