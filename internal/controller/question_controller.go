package controller

import (
	"codequiz_backend/internal/model"
	"codequiz_backend/internal/service"
	"codequiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	service *service.QuestionService
}

func NewQuestionController(s *service.QuestionService) *QuestionController {
	return &QuestionController{service: s}
}

type LintRulesRequest struct {
	Language string `json:"language" binding:"required"`
	Rules    string `json:"rules"`
}

// QuestionResponse 题目及其测试用例中无法识别的规则
type QuestionResponse struct {
	Question *model.Question     `json:"question"`
	Lint     []service.LintIssue `json:"lint,omitempty"`
}

// CreateQuestion godoc
// @Summary 为测验添加题目
// @Description 编程题可同时提交测试用例；HTML/CSS 题的用例 input 为规则串，返回中附带无法识别的规则
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuestionReq true "题目内容"
// @Success 201 {object} util.Response{data=QuestionResponse}
// @Router /teacher/quizzes/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.service.CreateQuestion(quizID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, QuestionResponse{Question: q, Lint: c.service.LintTestCases(q.Language, q.TestCases)})
}

// GetQuestion godoc
// @Summary 教师查看题目（含答案与全部用例）
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /teacher/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	q, err := c.service.GetQuestion(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description 传入 testCases 时整体替换原有用例
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionReq true "需要更新的字段"
// @Success 200 {object} util.Response{data=QuestionResponse}
// @Router /teacher/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.service.UpdateQuestion(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, QuestionResponse{Question: q, Lint: c.service.LintTestCases(q.Language, q.TestCases)})
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /teacher/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.service.DeleteQuestion(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListRules godoc
// @Summary 列出 HTML/CSS 规则表
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param language query string true "html 或 css"
// @Success 200 {object} util.Response{data=service.RuleCatalogue}
// @Router /teacher/questions/rules [get]
func (c *QuestionController) ListRules(ctx *gin.Context) {
	catalogue, err := c.service.ListRules(ctx.Query("language"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, catalogue)
}

// LintRules godoc
// @Summary 检查规则串中无法识别的规则
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LintRulesRequest true "语言与规则串"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Router /teacher/questions/lint-rules [post]
func (c *QuestionController) LintRules(ctx *gin.Context) {
	var req LintRulesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	unknown := c.service.LintRules(req.Language, req.Rules)
	if unknown == nil {
		unknown = []string{}
	}
	util.Success(ctx, gin.H{"unknown": unknown})
}
