package integration

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：图书模块集成测试
//
// 覆盖场景：
// 1. 馆员上架图书（含权限校验：读者不能上架）
// 2. 图书列表查询（分页、关键词搜索、分类筛选）
// 3. 图书详情（含派生的可借数量）
// 4. 馆员调整馆藏总量、下架/重新上架

// TestBookPublish 测试图书上架
func TestBookPublish(t *testing.T) {
	RequireServer(t)
	staffToken := LoginStaff(t)

	t.Run("馆员正常上架", func(t *testing.T) {
		isbn := GenerateTestISBN()
		bookReq := map[string]interface{}{
			"isbn":           isbn,
			"title":          "Go程序设计语言",
			"author":         "艾伦·多诺万",
			"category":       "计算机",
			"publisher":      "机械工业出版社",
			"published_year": 2017,
			"total_quantity": 5,
			"description":    "Go语言圣经",
		}

		resp := PostJSON(t, BaseURL+"/books", bookReq, staffToken)

		assert.Equal(t, 0, resp.Code, "上架应该成功: %s", resp.Message)

		var data BookData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析图书响应失败")

		assert.NotZero(t, data.ID, "图书ID应该大于0")
		assert.Equal(t, isbn, data.ISBN)
		assert.Equal(t, 5, data.TotalQuantity)
		assert.True(t, data.IsActive, "新上架图书应该在架")

		t.Logf("✓ 上架成功，图书ID: %d", data.ID)
	})

	t.Run("读者上架应被拒绝", func(t *testing.T) {
		_, readerToken := RegisterTestReader(t, "book_reader")

		bookReq := map[string]interface{}{
			"isbn":           GenerateTestISBN(),
			"title":          "不该出现的书",
			"author":         "测试作者",
			"category":       "计算机",
			"publisher":      "测试出版社",
			"published_year": 2020,
			"total_quantity": 1,
		}

		resp := PostJSON(t, BaseURL+"/books", bookReq, readerToken)

		assert.NotEqual(t, 0, resp.Code, "读者上架应该被拒绝")

		t.Logf("✓ 读者上架正确返回错误: %s", resp.Message)
	})

	t.Run("重复ISBN上架应失败", func(t *testing.T) {
		isbn := GenerateTestISBN()
		bookReq := map[string]interface{}{
			"isbn":           isbn,
			"title":          "第一本",
			"author":         "测试作者",
			"category":       "计算机",
			"publisher":      "测试出版社",
			"published_year": 2020,
			"total_quantity": 2,
		}

		resp1 := PostJSON(t, BaseURL+"/books", bookReq, staffToken)
		require.Equal(t, 0, resp1.Code, "第一次上架应该成功")

		bookReq["title"] = "第二本"
		resp2 := PostJSON(t, BaseURL+"/books", bookReq, staffToken)

		assert.NotEqual(t, 0, resp2.Code, "重复ISBN上架应该失败")

		t.Logf("✓ 重复ISBN正确返回错误: %s", resp2.Message)
	})
}

// TestBookList 测试图书列表查询
func TestBookList(t *testing.T) {
	RequireServer(t)
	staffToken := LoginStaff(t)

	// 准备：上架一本带唯一标题的图书
	uniqueTitle := fmt.Sprintf("集成测试专用图书%d", time.Now().UnixNano())
	PublishTestBook(t, staffToken, uniqueTitle, 3)

	t.Run("分页查询", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/books?page=1&page_size=5", "")

		assert.Equal(t, 0, resp.Code, "列表查询应该成功")

		var page PageData
		err := json.Unmarshal(resp.Data, &page)
		require.NoError(t, err, "解析分页响应失败")

		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 5, page.PageSize)
		assert.GreaterOrEqual(t, page.Total, int64(1), "应该至少有1本图书")

		t.Logf("✓ 列表查询成功，总数: %d", page.Total)
	})

	t.Run("关键词搜索", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/books?keyword="+url.QueryEscape(uniqueTitle), "")

		assert.Equal(t, 0, resp.Code, "关键词搜索应该成功")

		var page PageData
		err := json.Unmarshal(resp.Data, &page)
		require.NoError(t, err, "解析分页响应失败")

		assert.GreaterOrEqual(t, page.Total, int64(1), "应该搜到刚上架的图书")

		t.Logf("✓ 关键词搜索命中 %d 条", page.Total)
	})
}

// TestBookDetail 测试图书详情（可借数量为派生值）
func TestBookDetail(t *testing.T) {
	RequireServer(t)
	staffToken := LoginStaff(t)

	bookID := PublishTestBook(t, staffToken, "详情测试图书", 4)

	resp := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, bookID), "")
	assert.Equal(t, 0, resp.Code, "详情查询应该成功")

	var data BookData
	err := json.Unmarshal(resp.Data, &data)
	require.NoError(t, err, "解析图书详情失败")

	assert.Equal(t, bookID, data.ID)
	assert.Equal(t, 4, data.TotalQuantity)
	// 无借阅时可借数量等于馆藏总量
	assert.Equal(t, 4, data.AvailableQuantity, "无借阅时可借数量应等于馆藏总量")

	// 读者借2册后，可借数量应减少（待审批也占用额度）
	_, readerToken := RegisterTestReader(t, "detail_reader")
	CreateTestBorrow(t, readerToken, bookID, 2)

	resp = GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, bookID), "")
	require.Equal(t, 0, resp.Code)
	err = json.Unmarshal(resp.Data, &data)
	require.NoError(t, err)

	assert.Equal(t, 2, data.AvailableQuantity, "待审批申请应该占用可借额度")

	t.Logf("✓ 可借数量正确派生: 总量%d, 可借%d", data.TotalQuantity, data.AvailableQuantity)
}

// TestBookManage 测试馆藏管理（调量、下架、上架）
func TestBookManage(t *testing.T) {
	RequireServer(t)
	staffToken := LoginStaff(t)

	bookID := PublishTestBook(t, staffToken, "管理测试图书", 3)

	t.Run("调整馆藏总量", func(t *testing.T) {
		resp := PutJSON(t, fmt.Sprintf("%s/books/%d/quantity", BaseURL, bookID),
			map[string]interface{}{"total_quantity": 8}, staffToken)

		assert.Equal(t, 0, resp.Code, "调整馆藏总量应该成功: %s", resp.Message)

		detail := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, bookID), "")
		var data BookData
		require.NoError(t, json.Unmarshal(detail.Data, &data))
		assert.Equal(t, 8, data.TotalQuantity)

		t.Logf("✓ 馆藏总量调整为 %d", data.TotalQuantity)
	})

	t.Run("下架后不能借阅", func(t *testing.T) {
		resp := PostJSON(t, fmt.Sprintf("%s/books/%d/deactivate", BaseURL, bookID), nil, staffToken)
		require.Equal(t, 0, resp.Code, "下架应该成功: %s", resp.Message)

		_, readerToken := RegisterTestReader(t, "inactive_reader")
		borrowResp := PostJSON(t, BaseURL+"/borrows",
			map[string]interface{}{"book_id": bookID, "quantity": 1}, readerToken)

		assert.NotEqual(t, 0, borrowResp.Code, "下架图书不应该能借阅")

		t.Logf("✓ 下架图书借阅正确返回错误: %s", borrowResp.Message)
	})

	t.Run("重新上架后恢复借阅", func(t *testing.T) {
		resp := PostJSON(t, fmt.Sprintf("%s/books/%d/activate", BaseURL, bookID), nil, staffToken)
		require.Equal(t, 0, resp.Code, "重新上架应该成功: %s", resp.Message)

		_, readerToken := RegisterTestReader(t, "active_reader")
		borrowResp := PostJSON(t, BaseURL+"/borrows",
			map[string]interface{}{"book_id": bookID, "quantity": 1}, readerToken)

		assert.Equal(t, 0, borrowResp.Code, "重新上架后应该能借阅: %s", borrowResp.Message)

		t.Logf("✓ 重新上架后借阅成功")
	})

	t.Run("读者不能管理馆藏", func(t *testing.T) {
		_, readerToken := RegisterTestReader(t, "manage_reader")

		resp := PutJSON(t, fmt.Sprintf("%s/books/%d/quantity", BaseURL, bookID),
			map[string]interface{}{"total_quantity": 99}, readerToken)

		assert.NotEqual(t, 0, resp.Code, "读者调整馆藏应该被拒绝")

		t.Logf("✓ 读者管理馆藏正确返回错误: %s", resp.Message)
	})
}
