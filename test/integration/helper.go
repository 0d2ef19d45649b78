package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：集成测试辅助工具
// 这个文件包含集成测试的通用辅助函数，遵循DRY原则（Don't Repeat Yourself）
// 将重复的代码（HTTP请求、JSON解析、账号准备）封装成可复用的函数
//
// 运行前提：
// 1. API服务已启动（go run cmd/api/main.go），监听localhost:8080
// 2. 数据库中已有一个馆员账号（注册接口只产生读者，馆员需预置），
//    账号通过环境变量LIBRARY_STAFF_EMAIL/LIBRARY_STAFF_PASSWORD指定

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RegisterData 注册响应数据
type RegisterData struct {
	ID         uint   `json:"id"`
	BusinessID string `json:"business_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// LoginData 登录响应数据
type LoginData struct {
	User        UserInfo `json:"user"`
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
}

// UserInfo 登录响应中的用户信息
type UserInfo struct {
	ID         uint   `json:"id"`
	BusinessID string `json:"business_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// BookData 图书响应数据
type BookData struct {
	ID                uint   `json:"id"`
	ISBN              string `json:"isbn"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	Category          string `json:"category"`
	Publisher         string `json:"publisher"`
	PublishedYear     int    `json:"published_year"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	IsActive          bool   `json:"is_active"`
	Description       string `json:"description"`
}

// BorrowData 借阅记录响应数据
type BorrowData struct {
	ID         uint   `json:"id"`
	Quantity   int    `json:"quantity"`
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
	IsOverdue  bool   `json:"is_overdue"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date"`
	Note       string `json:"note"`
	Reader     struct {
		ID         uint   `json:"id"`
		BusinessID string `json:"business_id"`
		Name       string `json:"name"`
	} `json:"reader"`
	Book struct {
		ID     uint   `json:"id"`
		ISBN   string `json:"isbn"`
		Title  string `json:"title"`
		Author string `json:"author"`
	} `json:"book"`
}

// PageData 分页响应数据
type PageData struct {
	List       json.RawMessage `json:"list"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Extra      json.RawMessage `json:"extra"`
}

// BorrowStats 借阅列表的状态统计
type BorrowStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Overdue  int64 `json:"overdue"`
}

// 借阅状态码（与服务端约定一致）
const (
	StatusPending   = 1
	StatusApproved  = 2
	StatusReturned  = 3
	StatusRejected  = 4
	StatusCancelled = 5
)

// doJSON 发送HTTP请求并解析统一响应
func doJSON(t *testing.T, method, url string, data interface{}, token string) *Response {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(respBody, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(respBody))

	return &result
}

// PostJSON 发送POST请求并解析JSON响应
//
// 教学说明：
// - 使用*testing.T参数，可以在失败时立即终止测试
// - 使用require包进行断言，失败会立即停止（不继续执行）
// - 返回*Response而非error，简化调用方代码
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, "POST", url, data, token)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, "PUT", url, data, token)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string, token string) *Response {
	return doJSON(t, "GET", url, nil, token)
}

// RequireServer 检查API服务是否可达，不可达时跳过测试
//
// 教学说明：
// 集成测试依赖运行中的服务，服务未启动时直接Skip而非Fail，
// 这样单元测试和集成测试可以混在一起跑（go test ./...）
func RequireServer(t *testing.T) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://localhost:8080/ping")
	if err != nil {
		t.Skipf("API服务未启动，跳过集成测试: %v", err)
	}
	resp.Body.Close()
}

// GenerateTestEmail 生成唯一的测试邮箱
//
// 教学说明：
// 使用纳秒时间戳确保邮箱唯一性，避免测试重复运行时邮箱冲突
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// GenerateTestISBN 生成唯一的测试ISBN
//
// 教学说明：
// ISBN-13格式：978 + 10位数字
// 使用时间戳的后10位确保唯一性
func GenerateTestISBN() string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("978%010d", timestamp%10000000000)
}

// RegisterTestReader 注册测试读者并返回Token
//
// 教学说明：
// 注册接口只产生读者角色，这是一个"高阶"辅助函数，
// 封装了注册+登录的完整流程，让测试更关注业务逻辑而非基础设施
func RegisterTestReader(t *testing.T, name string) (email string, token string) {
	email = GenerateTestEmail(name)
	registerReq := map[string]string{
		"email":    email,
		"password": "Test@1234",
		"name":     name,
	}

	registerResp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "注册失败: %s", registerResp.Message)

	loginReq := map[string]string{
		"email":    email,
		"password": "Test@1234",
	}

	loginResp := PostJSON(t, BaseURL+"/users/login", loginReq, "")
	require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

	var loginData LoginData
	err := json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")

	return email, loginData.AccessToken
}

// LoginStaff 登录预置的馆员账号并返回Token
//
// 教学说明：
// 馆员账号不能通过注册接口产生，需要在数据库中预置。
// 账号通过环境变量指定，未预置时跳过需要馆员权限的测试
func LoginStaff(t *testing.T) string {
	email := os.Getenv("LIBRARY_STAFF_EMAIL")
	if email == "" {
		email = "staff@library.com"
	}
	password := os.Getenv("LIBRARY_STAFF_PASSWORD")
	if password == "" {
		password = "Staff@1234"
	}

	loginReq := map[string]string{
		"email":    email,
		"password": password,
	}

	loginResp := PostJSON(t, BaseURL+"/users/login", loginReq, "")
	if loginResp.Code != 0 {
		t.Skipf("馆员账号登录失败（未预置？）: %s", loginResp.Message)
	}

	var loginData LoginData
	err := json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")
	require.Equal(t, "staff", loginData.User.Role, "预置账号不是馆员角色")

	return loginData.AccessToken
}

// PublishTestBook 上架测试图书并返回图书ID
//
// 教学说明：
// 封装了图书上架流程（需要馆员Token），返回bookID供后续测试使用
func PublishTestBook(t *testing.T, staffToken string, title string, totalQuantity int) uint {
	bookReq := map[string]interface{}{
		"isbn":           GenerateTestISBN(),
		"title":          title,
		"author":         "测试作者",
		"category":       "计算机",
		"publisher":      "测试出版社",
		"published_year": 2020,
		"total_quantity": totalQuantity,
		"description":    "集成测试用图书",
	}

	bookResp := PostJSON(t, BaseURL+"/books", bookReq, staffToken)
	require.Equal(t, 0, bookResp.Code, "图书上架失败: %s", bookResp.Message)

	var bookData BookData
	err := json.Unmarshal(bookResp.Data, &bookData)
	require.NoError(t, err, "解析图书响应失败")

	return bookData.ID
}

// CreateTestBorrow 发起借阅申请并返回借阅记录ID
func CreateTestBorrow(t *testing.T, readerToken string, bookID uint, quantity int) uint {
	borrowReq := map[string]interface{}{
		"book_id":  bookID,
		"quantity": quantity,
	}

	borrowResp := PostJSON(t, BaseURL+"/borrows", borrowReq, readerToken)
	require.Equal(t, 0, borrowResp.Code, "借阅申请失败: %s", borrowResp.Message)

	var borrowData BorrowData
	err := json.Unmarshal(borrowResp.Data, &borrowData)
	require.NoError(t, err, "解析借阅响应失败")

	return borrowData.ID
}
