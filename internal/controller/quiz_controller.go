package controller

import (
	"codequiz_backend/internal/service"
	"codequiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	service *service.QuizService
}

func NewQuizController(s *service.QuizService) *QuizController {
	return &QuizController{service: s}
}

type PublishRequest struct {
	Published bool `json:"published"`
}

// ListQuizzes godoc
// @Summary 已发布测验列表
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	c.list(ctx, true)
}

// ListAllQuizzes godoc
// @Summary 教师查看全部测验（含未发布）
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /teacher/quizzes [get]
func (c *QuizController) ListAllQuizzes(ctx *gin.Context) {
	c.list(ctx, false)
}

func (c *QuizController) list(ctx *gin.Context, publishedOnly bool) {
	page, limit := util.PageParams(ctx)
	quizzes, total, err := c.service.ListQuizzes(page, limit, publishedOnly)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessPage(ctx, quizzes, total, page, limit)
}

// GetQuiz godoc
// @Summary 学生查看测验（不含答案与隐藏用例）
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.StudentQuiz}
// @Router /quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.service.GetQuizForStudent(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// GetQuizDetail godoc
// @Summary 教师查看测验完整内容
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /teacher/quizzes/{id} [get]
func (c *QuizController) GetQuizDetail(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.service.GetQuiz(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizReq true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Router /teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.service.CreateQuiz(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizReq true "需要更新的字段"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /teacher/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.service.UpdateQuiz(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// PublishQuiz godoc
// @Summary 发布/撤回测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body PublishRequest true "是否发布"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /teacher/quizzes/{id}/publish [put]
func (c *QuizController) PublishQuiz(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.service.SetPublished(id, req.Published)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除测验及其题目
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /teacher/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.service.DeleteQuiz(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// StartAttempt godoc
// @Summary 开始作答，已有进行中的尝试时返回该尝试
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Router /quizzes/{id}/attempts [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	attempt, err := c.service.StartAttempt(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// SubmitAttempt godoc
// @Summary 整卷提交
// @Description answers 以题目ID为键；编程题答案形如 {"code": "...", "language": "..."}
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param body body service.SubmitAttemptReq true "全部答案"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /attempts/{id}/submit [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.SubmitAttemptReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.service.SubmitAttempt(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListAttempts godoc
// @Summary 教师查看测验的作答记录
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /teacher/quizzes/{id}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	page, limit := util.PageParams(ctx)
	attempts, total, err := c.service.ListAttempts(id, page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessPage(ctx, attempts, total, page, limit)
}
