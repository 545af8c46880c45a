package service

import "codequiz_backend/internal/model"

// 以下接口由 internal/repository 中的 GORM 仓储实现

type QuizStore interface {
	Create(quiz *model.Quiz) error
	FindByID(id uint) (*model.Quiz, error)
	FindWithQuestions(id uint) (*model.Quiz, error)
	List(page, limit int, publishedOnly bool) ([]model.Quiz, int64, error)
	Update(quiz *model.Quiz) error
	Delete(id uint) error
}

type QuestionStore interface {
	Create(q *model.Question) error
	FindByID(id uint) (*model.Question, error)
	ListByQuiz(quizID uint) ([]model.Question, error)
	Update(q *model.Question, testCases []model.TestCase) error
	Delete(id uint) error
}

type AttemptStore interface {
	Create(a *model.QuizAttempt) error
	FindByID(id uint) (*model.QuizAttempt, error)
	FindInProgress(quizID, userID uint) (*model.QuizAttempt, error)
	Update(a *model.QuizAttempt) error
	ListByQuiz(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error)
}

type SubmissionStore interface {
	Create(s *model.Submission) error
	Update(s *model.Submission) error
	// UpdateUnlessSubmitted 记录仍未提交时才写入，返回是否写入
	UpdateUnlessSubmitted(s *model.Submission) (bool, error)
	FindByID(id uint) (*model.Submission, error)
	FindLatest(userID, questionID uint, attemptID *uint) (*model.Submission, error)
	ListByUserAndQuestion(userID, questionID uint) ([]model.Submission, error)
	ListByQuestion(questionID uint, page, limit int) ([]model.Submission, int64, error)
	ListByAttempt(attemptID uint) ([]model.Submission, error)
}
