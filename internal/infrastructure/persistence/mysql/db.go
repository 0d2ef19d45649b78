package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 自动迁移表结构（开发环境）
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 说明：AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&BorrowModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. 读者与馆员共用一张表，role字段区分（reader/staff）
type UserModel struct {
	ID         uint           `gorm:"primaryKey"`
	BusinessID string         `gorm:"uniqueIndex;size:32;not null;comment:业务编号(RD读者/ST馆员)"`
	Email      string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password   string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Name       string         `gorm:"size:50;not null;comment:姓名"`
	Role       string         `gorm:"index;size:10;not null;default:reader;comment:角色(reader/staff)"`
	Phone      string         `gorm:"size:20;comment:电话"`
	Address    string         `gorm:"size:255;comment:地址"`
	CreatedAt  time.Time      `gorm:"comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"comment:更新时间"`
	DeletedAt  gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 设计说明:
// 1. TotalQuantity是馆藏总册数；可借数量由借阅表实时推导，不冗余存储
// 2. ISBN有唯一索引，防止重复
// 3. IsActive=false表示下架（借阅准入拒绝，不影响存量记录）
type BookModel struct {
	ID            uint           `gorm:"primaryKey"`
	ISBN          string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title         string         `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author        string         `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Category      string         `gorm:"index;size:50;comment:分类"`
	Publisher     string         `gorm:"size:100;comment:出版社"`
	PublishedYear int            `gorm:"comment:出版年份"`
	TotalQuantity int            `gorm:"not null;default:0;comment:馆藏总册数"`
	IsActive      bool           `gorm:"not null;default:true;comment:是否可借(上架状态)"`
	CoverURL      string         `gorm:"size:500;comment:封面图片URL"`
	Description   string         `gorm:"type:text;comment:图书简介"`
	CreatedAt     time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// BorrowModel GORM借阅记录模型
// 设计说明:
// 1. 只追加不物理删除（无软删除字段），完整保留借阅历史
// 2. 索引设计服务三类查询：
//    - (book_id, status): 图书在借总量（可借数量台账）
//    - (reader_id, status): 读者在借总量（全局上限检查）
//    - (status, created_at): 过期巡检扫描
// 3. Status使用tinyint存储（1待审批2已借出3已归还4已拒绝5已取消）
type BorrowModel struct {
	ID              uint       `gorm:"primaryKey"`
	ReaderID        uint       `gorm:"index:idx_reader_status;not null;comment:读者ID"`
	BookID          uint       `gorm:"index:idx_book_status;not null;comment:图书ID"`
	ApprovedStaffID *uint      `gorm:"comment:审批馆员ID(系统自动拒绝为空)"`
	ReturnedStaffID *uint      `gorm:"comment:归还经办馆员ID"`
	Quantity        int        `gorm:"not null;comment:借阅册数"`
	Status          int        `gorm:"index:idx_reader_status;index:idx_book_status;index:idx_status_created;type:tinyint;not null;default:1;comment:状态(1待审批2已借出3已归还4已拒绝5已取消)"`
	BorrowDate      *time.Time `gorm:"comment:借出日期"`
	DueDate         *time.Time `gorm:"comment:应还日期"`
	ReturnDate      *time.Time `gorm:"comment:实际归还日期"`
	Note            string     `gorm:"size:500;comment:备注"`
	CreatedAt       time.Time  `gorm:"index:idx_status_created;comment:申请时间"`
	UpdatedAt       time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BorrowModel) TableName() string {
	return "borrows"
}
