package app

import (
	"codequiz_backend/docs"
	"codequiz_backend/internal/middleware"
	"codequiz_backend/internal/model"
	"codequiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, l *limiters) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, l)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		// 学生作答接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, l *limiters) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/grading/preview", l.preview.Handler(), c.grading.Preview)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/quizzes", c.quiz.ListQuizzes)
	group.GET("/quizzes/:id", c.quiz.GetQuiz)
	group.POST("/quizzes/:id/attempts", c.quiz.StartAttempt)
	group.POST("/attempts/:id/submit", c.quiz.SubmitAttempt)

	group.POST("/questions/:id/run", c.grading.RunTests)
	group.POST("/questions/:id/submit", c.grading.Submit)
	group.GET("/questions/:id/submissions/me", c.grading.MySubmissions)
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.GET("/quizzes", c.quiz.ListAllQuizzes)
		teacher.POST("/quizzes", c.quiz.CreateQuiz)
		teacher.GET("/quizzes/:id", c.quiz.GetQuizDetail)
		teacher.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		teacher.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
		teacher.PUT("/quizzes/:id/publish", c.quiz.PublishQuiz)
		teacher.GET("/quizzes/:id/attempts", c.quiz.ListAttempts)
		teacher.POST("/quizzes/:id/questions", c.question.CreateQuestion)

		teacher.POST("/questions/lint-rules", c.question.LintRules)
		teacher.GET("/questions/rules", c.question.ListRules)
		teacher.GET("/questions/:id", c.question.GetQuestion)
		teacher.PUT("/questions/:id", c.question.UpdateQuestion)
		teacher.DELETE("/questions/:id", c.question.DeleteQuestion)
		teacher.GET("/questions/:id/submissions", c.grading.ListSubmissions)
	}
}
