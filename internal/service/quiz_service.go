package service

import (
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/model"
	"codequiz_backend/internal/util"
	"codequiz_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizService struct {
	Repo        QuizStore
	Attempts    AttemptStore
	Submissions SubmissionStore
	Questions   *QuestionService
	Grading     *GradingService
}

func NewQuizService(repo QuizStore, attempts AttemptStore, submissions SubmissionStore, questions *QuestionService, gradingSvc *GradingService) *QuizService {
	return &QuizService{
		Repo:        repo,
		Attempts:    attempts,
		Submissions: submissions,
		Questions:   questions,
		Grading:     gradingSvc,
	}
}

type QuizReq struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	CourseID     *uint    `json:"courseId"`
	TimeLimit    *int     `json:"timeLimit"`
	PassingScore *float64 `json:"passingScore"`
	IsPublished  *bool    `json:"isPublished"`
	Proctored    *bool    `json:"proctored"`
}

type StudentQuiz struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	TimeLimit    int               `json:"timeLimit"`
	PassingScore float64           `json:"passingScore"`
	Proctored    bool              `json:"proctored"`
	TotalPoints  float64           `json:"totalPoints"`
	Questions    []StudentQuestion `json:"questions"`
}

// CodeAnswer 编程题在整卷提交中的答案形状
type CodeAnswer struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type SubmitAttemptReq struct {
	Answers map[uint]json.RawMessage `json:"answers"`
}

type QuestionOutcome struct {
	QuestionID   uint    `json:"questionId"`
	QuestionType string  `json:"questionType"`
	PointsEarned float64 `json:"pointsEarned"`
	PointsMax    float64 `json:"pointsMax"`
	Manual       bool    `json:"manual"`
	Error        string  `json:"error,omitempty"`
}

type AttemptResult struct {
	Attempt  *model.QuizAttempt `json:"attempt"`
	Display  string             `json:"display"`
	Outcomes []QuestionOutcome  `json:"outcomes"`
}

func (s *QuizService) applyReq(quiz *model.Quiz, req QuizReq) {
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.CourseID != nil {
		quiz.CourseID = *req.CourseID
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.Proctored != nil {
		quiz.Proctored = *req.Proctored
	}
	if req.IsPublished != nil {
		setPublished(quiz, *req.IsPublished)
	}
}

func setPublished(quiz *model.Quiz, published bool) {
	if published && !quiz.IsPublished {
		now := time.Now()
		quiz.PublishedAt = &now
	}
	if !published {
		quiz.PublishedAt = nil
	}
	quiz.IsPublished = published
}

func (s *QuizService) CreateQuiz(creatorID uint, req QuizReq) (*model.Quiz, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", util.ErrInvalidInput)
	}
	quiz := &model.Quiz{CreatorID: creatorID, PassingScore: 60}
	s.applyReq(quiz, req)
	if err := s.Repo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetQuiz(id uint) (*model.Quiz, error) {
	quiz, err := s.Repo.FindWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(id uint, req QuizReq) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	s.applyReq(quiz, req)
	if err := s.Repo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) SetPublished(id uint, published bool) (*model.Quiz, error) {
	return s.UpdateQuiz(id, QuizReq{IsPublished: &published})
}

func (s *QuizService) DeleteQuiz(id uint) error {
	if _, err := s.Repo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}
	return s.Repo.Delete(id)
}

func (s *QuizService) ListQuizzes(page, limit int, publishedOnly bool) ([]model.Quiz, int64, error) {
	return s.Repo.List(page, limit, publishedOnly)
}

// GetQuizForStudent 仅返回已发布测验的学生视图
func (s *QuizService) GetQuizForStudent(id uint) (*StudentQuiz, error) {
	quiz, err := s.GetQuiz(id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}
	dto := &StudentQuiz{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		TimeLimit:    quiz.TimeLimit,
		PassingScore: quiz.PassingScore,
		Proctored:    quiz.Proctored,
		Questions:    make([]StudentQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		dto.TotalPoints += questionMaxPoints(&q)
		dto.Questions = append(dto.Questions, s.Questions.ForStudent(q))
	}
	return dto, nil
}

// StartAttempt 已有进行中的尝试时直接返回
func (s *QuizService) StartAttempt(userID, quizID uint) (*model.QuizAttempt, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	existing, err := s.Attempts.FindInProgress(quizID, userID)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	attempt := &model.QuizAttempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    model.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitAttempt 整卷提交：客观题自动评分，主观题标记待人工评分，
// 编程题优先使用单题提交记录，否则用答案中的代码重新评测。
// 超时后的整卷提交仍然接受。
func (s *QuizService) SubmitAttempt(ctx context.Context, userID, attemptID uint, req SubmitAttemptReq) (*AttemptResult, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status == model.AttemptSubmitted {
		return nil, util.ErrAttemptSubmitted
	}

	quiz, err := s.GetQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Submissions.ListByAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uint]*model.Submission, len(existing))
	for i := range existing {
		byQuestion[existing[i].QuestionID] = &existing[i]
	}

	now := time.Now()
	result := &AttemptResult{Attempt: attempt}
	var earnedTotal, possibleTotal float64
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		outcome := s.scoreQuestion(ctx, userID, attempt, q, req.Answers[q.ID], byQuestion[q.ID], now)
		result.Outcomes = append(result.Outcomes, outcome)
		earnedTotal += outcome.PointsEarned
		possibleTotal += outcome.PointsMax
		if outcome.Manual {
			attempt.NeedsReview = true
		}
	}

	attempt.PointsEarned = math.Round(earnedTotal*100) / 100
	attempt.PointsPossible = possibleTotal
	if possibleTotal > 0 {
		attempt.Score = earnedTotal / possibleTotal * 100
	}
	attempt.Passed = attempt.Score >= quiz.PassingScore
	attempt.Status = model.AttemptSubmitted
	attempt.SubmittedAt = &now
	if err := s.Attempts.Update(attempt); err != nil {
		return nil, err
	}
	result.Display = grading.DisplayPercent(attempt.Score)

	logger.Log.Info("quiz attempt submitted",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("userId", userID),
		zap.String("score", result.Display),
		zap.Bool("needsReview", attempt.NeedsReview))
	return result, nil
}

func (s *QuizService) scoreQuestion(ctx context.Context, userID uint, attempt *model.QuizAttempt, q *model.Question, answer json.RawMessage, prior *model.Submission, now time.Time) QuestionOutcome {
	outcome := QuestionOutcome{QuestionID: q.ID, QuestionType: q.QuestionType, PointsMax: questionMaxPoints(q)}

	if prior != nil && prior.Phase == string(grading.PhaseSubmitted) {
		outcome.PointsEarned = prior.PointsEarned
		outcome.Manual = prior.ManualReview
		return outcome
	}

	sub := prior
	if sub == nil {
		attemptID := attempt.ID
		sub = &model.Submission{AttemptID: &attemptID, QuestionID: q.ID, UserID: userID}
	}
	sub.Answer = answer
	sub.Phase = string(grading.PhaseSubmitted)
	sub.SubmittedAt = &now

	if q.QuestionType == grading.TypeCoding {
		var ca CodeAnswer
		if len(answer) > 0 {
			_ = json.Unmarshal(answer, &ca)
		}
		if ca.Code == "" && prior != nil {
			ca.Code, ca.Language = prior.Code, prior.Language
		}
		if ca.Code != "" {
			report, err := s.Grading.GradeForAttempt(ctx, q, ca.Language, ca.Code)
			if err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.PointsEarned = scaleToQuestion(q.Points, report)
				sub.Score = report.Score
				sub.Passed = report.Passed
				sub.Total = report.Total
				sub.Results = marshalResults(report.Results)
			}
			sub.Code = ca.Code
			sub.Language = languageFor(q, ca.Language)
		}
	} else {
		earned, possible, manual, err := grading.ScoreObjective(grading.ObjectiveQuestion{
			Type:   q.QuestionType,
			Points: q.Points,
			Key:    q.AnswerKey,
		}, answer)
		if err != nil {
			outcome.Error = err.Error()
		}
		outcome.PointsEarned, outcome.PointsMax, outcome.Manual = earned, possible, manual
		if possible > 0 {
			sub.Score = earned / possible * 100
		}
		sub.ManualReview = manual
	}
	sub.PointsEarned = outcome.PointsEarned

	var err error
	if sub.ID == 0 {
		err = s.Submissions.Create(sub)
	} else {
		err = s.Submissions.Update(sub)
	}
	if err != nil {
		logger.Log.Error("save attempt submission failed", zap.Uint("questionId", q.ID), zap.Error(err))
	}
	return outcome
}

func (s *QuizService) ListAttempts(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	return s.Attempts.ListByQuiz(quizID, page, limit)
}
