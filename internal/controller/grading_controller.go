package controller

import (
	"codequiz_backend/internal/service"
	"codequiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	service *service.GradingService
}

func NewGradingController(s *service.GradingService) *GradingController {
	return &GradingController{service: s}
}

// Preview godoc
// @Summary HTML/CSS 规则校验预览
// @Description 使用临时规则校验代码，不保存任何记录
// @Tags 判题
// @Accept json
// @Produce json
// @Param body body service.PreviewReq true "语言、代码与规则串"
// @Success 200 {object} util.Response{data=service.PreviewResult}
// @Failure 429 {object} util.Response
// @Router /grading/preview [post]
func (c *GradingController) Preview(ctx *gin.Context) {
	var req service.PreviewReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.service.Preview(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// RunTests godoc
// @Summary 运行可见测试用例
// @Tags 判题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.CodeReq true "代码"
// @Success 200 {object} util.Response{data=service.RunResult}
// @Router /questions/{id}/run [post]
func (c *GradingController) RunTests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.CodeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.service.RunTests(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Submit godoc
// @Summary 提交编程题
// @Description 重新评测全部用例（含隐藏用例），隐藏用例只返回是否通过
// @Tags 判题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.CodeReq true "代码"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 409 {object} util.Response
// @Router /questions/{id}/submit [post]
func (c *GradingController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.CodeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.service.Submit(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// MySubmissions godoc
// @Summary 我的作答记录
// @Tags 判题
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=[]model.Submission}
// @Router /questions/{id}/submissions/me [get]
func (c *GradingController) MySubmissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	subs, err := c.service.MySubmissions(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// ListSubmissions godoc
// @Summary 教师查看题目的全部提交
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /teacher/questions/{id}/submissions [get]
func (c *GradingController) ListSubmissions(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	page, limit := util.PageParams(ctx)
	subs, total, err := c.service.ListSubmissions(id, page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessPage(ctx, subs, total, page, limit)
}
