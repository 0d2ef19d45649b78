package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
// 公开接口：列表、详情
// 馆员接口：入馆、修改、馆藏调整、上下架
type BookHandler struct {
	publishUseCase *appbook.PublishBookUseCase
	listUseCase    *appbook.ListBooksUseCase
	getUseCase     *appbook.GetBookUseCase
	manageUseCase  *appbook.ManageBookUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	publishUseCase *appbook.PublishBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	getUseCase *appbook.GetBookUseCase,
	manageUseCase *appbook.ManageBookUseCase,
) *BookHandler {
	return &BookHandler{
		publishUseCase: publishUseCase,
		listUseCase:    listUseCase,
		getUseCase:     getUseCase,
		manageUseCase:  manageUseCase,
	}
}

// Publish 图书入馆
// @Summary      图书入馆
// @Description  新增馆藏图书（馆员）
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=dto.BookResponse} "入馆成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) Publish(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.publishUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		Publisher:     req.Publisher,
		PublishedYear: req.PublishedYear,
		TotalQuantity: req.TotalQuantity,
		CoverURL:      req.CoverURL,
		Description:   req.Description,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// List 图书列表
// @Summary      图书列表
// @Description  分页查询馆藏图书，支持关键词、分类筛选
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        keyword query string false "关键词（标题/作者）"
// @Param        category query string false "分类"
// @Param        only_active query bool false "只看在架"
// @Param        sort_by query string false "排序方式"
// @Success      200 {object} response.Response{data=response.PageData} "查询成功"
// @Router       /api/v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Keyword:    req.Keyword,
		Category:   req.Category,
		OnlyActive: req.OnlyActive,
		SortBy:     req.SortBy,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Get 图书详情
// @Summary      图书详情
// @Description  查询图书详情，含实时可借数量
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse} "查询成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.getUseCase.Execute(c.Request.Context(), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Update 修改图书信息
// @Summary      修改图书信息
// @Description  修改图书基础信息（馆员）
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "图书信息"
// @Success      200 {object} response.Response "修改成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	err := h.manageUseCase.UpdateInfo(c.Request.Context(), appbook.UpdateBookRequest{
		BookID:      bookID,
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Publisher:   req.Publisher,
		Description: req.Description,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// UpdateQuantity 调整馆藏总量
// @Summary      调整馆藏总量
// @Description  调整图书馆藏总册数（馆员）
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateQuantityRequest true "馆藏总量"
// @Success      200 {object} response.Response "调整成功"
// @Router       /api/v1/books/{id}/quantity [put]
func (h *BookHandler) UpdateQuantity(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	if err := h.manageUseCase.UpdateQuantity(c.Request.Context(), bookID, req.TotalQuantity); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Deactivate 下架图书
// @Summary      下架图书
// @Description  下架后不再接受新的借阅申请（馆员）
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "下架成功"
// @Router       /api/v1/books/{id}/deactivate [post]
func (h *BookHandler) Deactivate(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.manageUseCase.Deactivate(c.Request.Context(), bookID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Activate 重新上架图书
// @Summary      重新上架图书
// @Description  恢复接受借阅申请（馆员）
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "上架成功"
// @Router       /api/v1/books/{id}/activate [post]
func (h *BookHandler) Activate(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.manageUseCase.Activate(c.Request.Context(), bookID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// parseIDParam 解析路径中的ID参数，非法时直接写响应
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, 40900, "无效的ID参数")
		return 0, false
	}
	return uint(id), true
}
