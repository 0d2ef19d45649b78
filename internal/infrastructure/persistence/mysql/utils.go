package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
// MySQL错误码:
// - 1062: Duplicate entry 'xxx' for key 'yyy'
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	// GORM v2的错误判断
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 兼容检查:错误信息包含"Duplicate entry"
	return strings.Contains(err.Error(), "Duplicate entry")
}

// isLockConflictError 判断是否为可重试的锁冲突错误
// MySQL错误码:
// - 1213: Deadlock found when trying to get lock
// - 1205: Lock wait timeout exceeded
// 说明：借阅准入控制按"先读者行后图书行"的固定顺序加锁，
// 正常情况下不会死锁；这里兜底处理跨业务路径的偶发冲突
func isLockConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1213") ||
		strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "Error 1205") ||
		strings.Contains(msg, "Lock wait timeout")
}
