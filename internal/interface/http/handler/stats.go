package handler

import (
	"github.com/gin-gonic/gin"

	appstats "github.com/xiebiao/library/internal/application/stats"
	"github.com/xiebiao/library/pkg/response"
)

// StatsHandler 统计HTTP处理器
type StatsHandler struct {
	overviewUseCase *appstats.OverviewUseCase
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(overviewUseCase *appstats.OverviewUseCase) *StatsHandler {
	return &StatsHandler{overviewUseCase: overviewUseCase}
}

// Overview 运营概览
// @Summary      运营概览
// @Description  读者数、馆藏数、各状态借阅数、当前逾期数（馆员）
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appstats.OverviewResponse} "查询成功"
// @Router       /api/v1/stats/overview [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	result, err := h.overviewUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
