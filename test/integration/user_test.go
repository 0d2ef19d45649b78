package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：用户模块集成测试
//
// 集成测试 vs 单元测试：
// - 单元测试：Mock外部依赖（数据库、Redis），测试单个函数的逻辑
// - 集成测试：使用真实的数据库和Redis，测试完整的API流程
//
// 集成测试的价值：
// 1. 验证各组件协同工作（Handler → UseCase → Service → Repository → Database）
// 2. 发现配置错误（如数据库连接、Wire依赖注入）
// 3. 验证业务流程的完整性
//
// 运行方式：
//   make test-integration   # 需要先启动Docker环境
//   go test -v ./test/integration/...

// TestUserRegister 测试用户注册功能
//
// 测试场景：
// 1. 正常注册（角色固定为读者）
// 2. 重复邮箱注册（应失败）
// 3. 密码格式校验
// 4. 邮箱格式校验
func TestUserRegister(t *testing.T) {
	RequireServer(t)

	// 教学说明：使用t.Run()组织子测试
	// 好处：
	// 1. 测试结果更清晰（可以看到每个子场景的结果）
	// 2. 子测试失败不影响其他子测试
	// 3. 可以使用 go test -run=TestUserRegister/正常注册 运行单个子测试

	t.Run("正常注册", func(t *testing.T) {
		email := GenerateTestEmail("normal_reader")
		registerReq := map[string]string{
			"email":    email,
			"password": "Test@1234",
			"name":     "测试读者",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")

		assert.Equal(t, 0, resp.Code, "注册应该成功")

		var data RegisterData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析响应数据失败")

		assert.NotZero(t, data.ID, "用户ID应该大于0")
		assert.NotEmpty(t, data.BusinessID, "应该生成业务编号")
		assert.Equal(t, email, data.Email, "返回的邮箱应该与请求一致")
		assert.Equal(t, "测试读者", data.Name, "返回的姓名应该与请求一致")
		// 注册接口只产生读者角色，馆员账号由管理员预置
		assert.Equal(t, "reader", data.Role, "注册用户的角色应该是读者")

		t.Logf("✓ 注册成功，用户ID: %d，业务编号: %s", data.ID, data.BusinessID)
	})

	t.Run("重复邮箱注册应失败", func(t *testing.T) {
		email := GenerateTestEmail("duplicate_reader")
		registerReq := map[string]string{
			"email":    email,
			"password": "Test@1234",
			"name":     "测试读者1",
		}

		resp1 := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		require.Equal(t, 0, resp1.Code, "第一次注册应该成功")

		registerReq["name"] = "测试读者2"
		resp2 := PostJSON(t, BaseURL+"/users/register", registerReq, "")

		assert.NotEqual(t, 0, resp2.Code, "重复邮箱注册应该失败")
		assert.Contains(t, resp2.Message, "邮箱", "错误信息应该提示邮箱相关")

		t.Logf("✓ 重复邮箱注册正确返回错误: %s", resp2.Message)
	})

	t.Run("密码过短应失败", func(t *testing.T) {
		registerReq := map[string]string{
			"email":    GenerateTestEmail("short_pwd"),
			"password": "123", // 太短（<8位）
			"name":     "测试读者",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")

		assert.NotEqual(t, 0, resp.Code, "密码过短应该失败")

		t.Logf("✓ 密码过短正确返回错误: %s", resp.Message)
	})

	t.Run("邮箱格式错误应失败", func(t *testing.T) {
		registerReq := map[string]string{
			"email":    "invalid-email", // 无效邮箱格式
			"password": "Test@1234",
			"name":     "测试读者",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")

		assert.NotEqual(t, 0, resp.Code, "邮箱格式错误应该失败")

		t.Logf("✓ 邮箱格式错误正确返回错误: %s", resp.Message)
	})
}

// TestUserLogin 测试用户登录功能
//
// 测试场景：
// 1. 正常登录（返回Token和用户信息）
// 2. 密码错误
// 3. 用户不存在
func TestUserLogin(t *testing.T) {
	RequireServer(t)

	// 准备：先注册一个读者
	email := GenerateTestEmail("login_reader")
	registerReq := map[string]string{
		"email":    email,
		"password": "Test@1234",
		"name":     "登录测试",
	}
	registerResp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "准备阶段注册失败")

	t.Run("正常登录", func(t *testing.T) {
		loginReq := map[string]string{
			"email":    email,
			"password": "Test@1234",
		}

		resp := PostJSON(t, BaseURL+"/users/login", loginReq, "")

		assert.Equal(t, 0, resp.Code, "登录应该成功")

		var data LoginData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析登录响应失败")

		assert.NotEmpty(t, data.AccessToken, "应该返回访问Token")
		assert.Greater(t, data.ExpiresIn, int64(0), "应该返回Token有效期")
		assert.Equal(t, email, data.User.Email, "返回的用户邮箱应该一致")
		assert.Equal(t, "reader", data.User.Role, "返回的角色应该是读者")

		t.Logf("✓ 登录成功，Token前缀: %.20s...", data.AccessToken)
	})

	t.Run("密码错误应失败", func(t *testing.T) {
		loginReq := map[string]string{
			"email":    email,
			"password": "Wrong@1234",
		}

		resp := PostJSON(t, BaseURL+"/users/login", loginReq, "")

		assert.NotEqual(t, 0, resp.Code, "密码错误应该失败")

		t.Logf("✓ 密码错误正确返回错误: %s", resp.Message)
	})

	t.Run("用户不存在应失败", func(t *testing.T) {
		loginReq := map[string]string{
			"email":    "nonexistent_99999@test.com",
			"password": "Test@1234",
		}

		resp := PostJSON(t, BaseURL+"/users/login", loginReq, "")

		assert.NotEqual(t, 0, resp.Code, "用户不存在应该失败")

		t.Logf("✓ 用户不存在正确返回错误: %s", resp.Message)
	})
}

// TestUserLogout 测试用户登出功能
//
// 教学说明：
// 登出后Token进入黑名单，再用同一Token访问受保护接口应被拒绝，
// 这验证了Redis黑名单机制在中间件中生效
func TestUserLogout(t *testing.T) {
	RequireServer(t)

	_, token := RegisterTestReader(t, "logout_reader")

	// 登出
	resp := PostJSON(t, BaseURL+"/users/logout", nil, token)
	assert.Equal(t, 0, resp.Code, "登出应该成功: %s", resp.Message)

	// 用已登出的Token访问受保护接口
	listResp := GetJSON(t, BaseURL+"/borrows", token)
	assert.NotEqual(t, 0, listResp.Code, "已登出的Token应该被拒绝")

	t.Logf("✓ 登出后Token正确失效: %s", listResp.Message)
}

// TestAuthRequired 测试认证中间件
func TestAuthRequired(t *testing.T) {
	RequireServer(t)

	t.Run("无Token访问受保护接口", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/borrows", "")
		assert.NotEqual(t, 0, resp.Code, "无Token应该被拒绝")

		t.Logf("✓ 无Token正确返回错误: %s", resp.Message)
	})

	t.Run("无效Token访问受保护接口", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/borrows", "invalid.token.here")
		assert.NotEqual(t, 0, resp.Code, "无效Token应该被拒绝")

		t.Logf("✓ 无效Token正确返回错误: %s", resp.Message)
	})
}
