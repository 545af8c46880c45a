package controller

import (
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/service"
	"codequiz_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError 把业务错误映射为 HTTP 状态码，未识别的错误记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrSubmissionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrPermissionDenied),
		errors.Is(err, util.ErrQuizNotPublished):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrAttemptSubmitted),
		errors.Is(err, util.ErrAttemptExpired),
		errors.Is(err, grading.ErrAlreadySubmitted),
		errors.Is(err, grading.ErrRunInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrSourceTooLarge):
		util.PayloadTooLarge(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidInput),
		errors.Is(err, util.ErrInvalidQuestionType),
		errors.Is(err, util.ErrNotCodingQuestion),
		errors.Is(err, util.ErrNoTestCases),
		errors.Is(err, util.ErrTooManyTestCases),
		errors.Is(err, service.ErrPreviewLanguage):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// idParam 解析路径中的 ID，非法时直接响应 400
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
