package user

import (
	"fmt"
	"math/rand"
	"time"
)

// Role 用户角色
// 设计说明：
// 1. 系统只有两种角色：读者(reader)与馆员(staff)
// 2. 使用string存储，JWT Claims与前端判断都直接可读
type Role string

const (
	RoleReader Role = "reader" // 读者：发起/取消借阅
	RoleStaff  Role = "staff"  // 馆员：审批/拒绝/确认归还
)

// Valid 校验角色合法性
func (r Role) Valid() bool {
	return r == RoleReader || r == RoleStaff
}

// User 用户实体（聚合根）
// DDD设计说明：
// 1. User是身份聚合的根实体，读者与馆员共用一张表，按Role区分
// 2. BusinessID是业务编号（读者RDxxx/馆员STxxx），对外展示用，与自增ID解耦
// 3. 密码已加密存储（bcrypt），领域实体不暴露明文
type User struct {
	ID         uint
	BusinessID string // 业务编号（RD开头为读者，ST开头为馆员）
	Email      string
	Password   string // bcrypt哈希值
	Name       string // 姓名/昵称
	Role       Role
	Phone      string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, name string, role Role) *User {
	now := time.Now()
	return &User{
		BusinessID: GenerateBusinessID(role),
		Email:      email,
		Password:   hashedPassword,
		Name:       name,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsReader 是否为读者
func (u *User) IsReader() bool {
	return u.Role == RoleReader
}

// IsStaff 是否为馆员
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

// UpdateProfile 更新个人资料（领域行为）
func (u *User) UpdateProfile(name, phone, address string) {
	if name != "" {
		u.Name = name
	}
	if phone != "" {
		u.Phone = phone
	}
	if address != "" {
		u.Address = address
	}
	u.UpdatedAt = time.Now()
}

// GenerateBusinessID 生成业务编号
// 格式：角色前缀 + 时间戳(秒) + 4位随机数
// 示例：RD17352468001234
// 说明：全局基本唯一、时间有序、不可预测（数据库唯一索引兜底）
func GenerateBusinessID(role Role) string {
	prefix := "RD"
	if role == RoleStaff {
		prefix = "ST"
	}
	timestamp := time.Now().Unix()
	random := rand.Intn(10000)
	return fmt.Sprintf("%s%d%04d", prefix, timestamp, random)
}
