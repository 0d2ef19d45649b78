package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BorrowHandler 借阅HTTP处理器
// 读者接口：发起申请、取消申请、查询自己的借阅
// 馆员接口：审批、拒绝、确认归还、查询全部借阅、手动触发过期巡检
type BorrowHandler struct {
	createUseCase *appborrow.CreateBorrowUseCase
	cancelUseCase *appborrow.CancelBorrowUseCase
	reviewUseCase *appborrow.ReviewBorrowUseCase
	returnUseCase *appborrow.ConfirmReturnUseCase
	getUseCase    *appborrow.GetBorrowUseCase
	listUseCase   *appborrow.ListBorrowsUseCase
	sweepUseCase  *appborrow.SweepExpiredUseCase
}

// NewBorrowHandler 创建借阅处理器
func NewBorrowHandler(
	createUseCase *appborrow.CreateBorrowUseCase,
	cancelUseCase *appborrow.CancelBorrowUseCase,
	reviewUseCase *appborrow.ReviewBorrowUseCase,
	returnUseCase *appborrow.ConfirmReturnUseCase,
	getUseCase *appborrow.GetBorrowUseCase,
	listUseCase *appborrow.ListBorrowsUseCase,
	sweepUseCase *appborrow.SweepExpiredUseCase,
) *BorrowHandler {
	return &BorrowHandler{
		createUseCase: createUseCase,
		cancelUseCase: cancelUseCase,
		reviewUseCase: reviewUseCase,
		returnUseCase: returnUseCase,
		getUseCase:    getUseCase,
		listUseCase:   listUseCase,
		sweepUseCase:  sweepUseCase,
	}
}

// Create 发起借阅申请
// @Summary      发起借阅申请
// @Description  读者申请借阅图书，申请需馆员审批
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBorrowRequest true "借阅申请"
// @Success      201 {object} response.Response{data=appborrow.BorrowInfo} "申请成功"
// @Failure      400 {object} response.Response "可借数量不足/超出借阅上限"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/borrows [post]
func (h *BorrowHandler) Create(c *gin.Context) {
	var req dto.CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appborrow.CreateBorrowRequest{
		ReaderID: middleware.MustGetUserID(c),
		BookID:   req.BookID,
		Quantity: req.Quantity,
		Note:     req.Note,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Cancel 取消借阅申请
// @Summary      取消借阅申请
// @Description  读者取消自己的待审批申请
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.BorrowInfo} "取消成功"
// @Failure      403 {object} response.Response "不是本人的申请"
// @Failure      409 {object} response.Response "当前状态不允许取消"
// @Router       /api/v1/borrows/{id}/cancel [post]
func (h *BorrowHandler) Cancel(c *gin.Context) {
	borrowID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c), borrowID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Approve 审批通过
// @Summary      审批通过借阅申请
// @Description  馆员审批通过，记录借出日期与应还日期
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.BorrowInfo} "审批成功"
// @Failure      409 {object} response.Response "当前状态不允许审批"
// @Router       /api/v1/borrows/{id}/approve [post]
func (h *BorrowHandler) Approve(c *gin.Context) {
	borrowID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.reviewUseCase.Approve(c.Request.Context(), middleware.MustGetUserID(c), borrowID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reject 拒绝申请
// @Summary      拒绝借阅申请
// @Description  馆员拒绝申请，可附拒绝原因
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Param        request body dto.RejectBorrowRequest false "拒绝原因"
// @Success      200 {object} response.Response{data=appborrow.BorrowInfo} "已拒绝"
// @Failure      409 {object} response.Response "当前状态不允许拒绝"
// @Router       /api/v1/borrows/{id}/reject [post]
func (h *BorrowHandler) Reject(c *gin.Context) {
	borrowID, ok := parseIDParam(c)
	if !ok {
		return
	}

	// 拒绝原因可选，body为空时按无原因处理
	var req dto.RejectBorrowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
			return
		}
	}

	result, err := h.reviewUseCase.Reject(c.Request.Context(), middleware.MustGetUserID(c), borrowID, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Return 确认归还
// @Summary      确认归还
// @Description  馆员确认图书归还，记录归还日期并释放可借额度
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.BorrowInfo} "归还成功"
// @Failure      409 {object} response.Response "当前状态不允许归还"
// @Router       /api/v1/borrows/{id}/return [post]
func (h *BorrowHandler) Return(c *gin.Context) {
	borrowID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.returnUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c), borrowID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Get 借阅详情
// @Summary      借阅详情
// @Description  查询单条借阅记录（读者仅限本人记录）
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.BorrowInfo} "查询成功"
// @Failure      403 {object} response.Response "无权查看"
// @Failure      404 {object} response.Response "记录不存在"
// @Router       /api/v1/borrows/{id} [get]
func (h *BorrowHandler) Get(c *gin.Context) {
	borrowID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.getUseCase.Execute(c.Request.Context(), appborrow.GetBorrowRequest{
		BorrowID:      borrowID,
		RequesterID:   middleware.MustGetUserID(c),
		RequesterRole: middleware.GetRole(c),
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 借阅列表
// @Summary      借阅列表
// @Description  分页查询借阅记录（读者仅限本人），附带状态统计；统计不受status筛选影响
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        reader_id query int false "读者ID（仅馆员）"
// @Param        book_id query int false "图书ID"
// @Param        status query int false "状态(1待审批2已借出3已归还4已拒绝5已取消)"
// @Param        created_from query string false "申请时间下界(RFC3339)"
// @Param        created_to query string false "申请时间上界(RFC3339)"
// @Param        keyword query string false "关键词（备注/图书标题）"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/borrows [get]
func (h *BorrowHandler) List(c *gin.Context) {
	var req dto.ListBorrowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	createdFrom, ok := parseTimeParam(c, req.CreatedFrom)
	if !ok {
		return
	}
	createdTo, ok := parseTimeParam(c, req.CreatedTo)
	if !ok {
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appborrow.ListBorrowsRequest{
		RequesterID:   middleware.MustGetUserID(c),
		RequesterRole: middleware.GetRole(c),
		ReaderID:      req.ReaderID,
		BookID:        req.BookID,
		Status:        req.Status,
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
		Keyword:       req.Keyword,
		Page:          req.Page,
		PageSize:      req.PageSize,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPageExtra(c, result.List, result.Total, result.Page, result.PageSize, result.Stats)
}

// Sweep 手动触发过期巡检
// @Summary      手动触发过期巡检
// @Description  立即执行一次过期申请巡检（馆员，通常由后台定时任务执行）
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appborrow.SweepResult} "巡检完成"
// @Router       /api/v1/borrows/sweep [post]
func (h *BorrowHandler) Sweep(c *gin.Context) {
	result, err := h.sweepUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseTimeParam 解析RFC3339时间参数，空串返回零值
func parseTimeParam(c *gin.Context, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		response.ErrorWithCode(c, 40900, "时间参数格式错误，应为RFC3339格式")
		return time.Time{}, false
	}
	return t, true
}
