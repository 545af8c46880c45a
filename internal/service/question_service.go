package service

import (
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/model"
	"codequiz_backend/internal/util"
	"codequiz_backend/internal/validator"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type QuestionService struct {
	Repo     QuestionStore
	QuizRepo QuizStore
}

func NewQuestionService(repo QuestionStore, quizRepo QuizStore) *QuestionService {
	return &QuestionService{Repo: repo, QuizRepo: quizRepo}
}

type TestCaseReq struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	Hidden         bool    `json:"hidden"`
	Points         float64 `json:"points"`
	Order          int     `json:"order"`
}

type QuestionReq struct {
	QuestionType *string         `json:"questionType"`
	Prompt       *string         `json:"prompt"`
	Points       *float64        `json:"points"`
	TimeLimit    *int            `json:"timeLimit"`
	Payload      json.RawMessage `json:"payload"`
	AnswerKey    json.RawMessage `json:"answerKey"`
	Language     *string         `json:"language"`
	StarterCode  *string         `json:"starterCode"`
	Explanation  *string         `json:"explanation"`
	Order        *int            `json:"order"`
	TestCases    *[]TestCaseReq  `json:"testCases"`
}

// StudentTestCase 隐藏用例只保留编号与分值
type StudentTestCase struct {
	ID             uint    `json:"id"`
	Input          string  `json:"input,omitempty"`
	ExpectedOutput string  `json:"expectedOutput,omitempty"`
	Hidden         bool    `json:"hidden"`
	Points         float64 `json:"points"`
}

// StudentQuestion 学生视图，不含标准答案与解析
type StudentQuestion struct {
	ID           uint              `json:"id"`
	QuizID       uint              `json:"quizId"`
	QuestionType string            `json:"questionType"`
	Prompt       string            `json:"prompt"`
	Points       float64           `json:"points"`
	TimeLimit    int               `json:"timeLimit"`
	Payload      json.RawMessage   `json:"payload,omitempty"`
	Language     string            `json:"language,omitempty"`
	StarterCode  string            `json:"starterCode,omitempty"`
	Order        int               `json:"order"`
	TestCases    []StudentTestCase `json:"testCases,omitempty"`
}

// LintIssue 某个测试用例中无法识别的规则
type LintIssue struct {
	TestCase int      `json:"testCase"`
	Unknown  []string `json:"unknown"`
}

func (s *QuestionService) applyReq(q *model.Question, req QuestionReq) {
	if req.QuestionType != nil {
		q.QuestionType = strings.TrimSpace(*req.QuestionType)
	}
	if req.Prompt != nil {
		q.Prompt = *req.Prompt
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.TimeLimit != nil {
		q.TimeLimit = *req.TimeLimit
	}
	if req.Payload != nil {
		q.Payload = req.Payload
	}
	if req.AnswerKey != nil {
		q.AnswerKey = req.AnswerKey
	}
	if req.Language != nil {
		q.Language = strings.ToLower(strings.TrimSpace(*req.Language))
	}
	if req.StarterCode != nil {
		q.StarterCode = *req.StarterCode
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if req.Order != nil {
		q.Order = *req.Order
	}
}

func buildTestCases(reqs []TestCaseReq) []model.TestCase {
	tcs := make([]model.TestCase, 0, len(reqs))
	for i, r := range reqs {
		tc := model.TestCase{}
		_ = copier.Copy(&tc, &r)
		if tc.Order == 0 {
			tc.Order = i + 1
		}
		if tc.Points <= 0 {
			tc.Points = 1
		}
		tcs = append(tcs, tc)
	}
	return tcs
}

func validateQuestion(q *model.Question) error {
	if !grading.IsValidType(q.QuestionType) {
		return fmt.Errorf("%w: %q", util.ErrInvalidQuestionType, q.QuestionType)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", util.ErrInvalidInput)
	}
	if q.QuestionType == grading.TypeCoding && q.Language == "" {
		return fmt.Errorf("%w: language is required for coding questions", util.ErrInvalidInput)
	}
	return nil
}

func (s *QuestionService) CreateQuestion(quizID uint, req QuestionReq) (*model.Question, error) {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	q := &model.Question{QuizID: quizID}
	s.applyReq(q, req)
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if req.TestCases != nil {
		q.TestCases = buildTestCases(*req.TestCases)
	}
	if err := s.Repo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) UpdateQuestion(id uint, req QuestionReq) (*model.Question, error) {
	q, err := s.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	s.applyReq(q, req)
	if err := validateQuestion(q); err != nil {
		return nil, err
	}

	var tcs []model.TestCase
	if req.TestCases != nil {
		tcs = buildTestCases(*req.TestCases)
	}
	if err := s.Repo.Update(q, tcs); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) DeleteQuestion(id uint) error {
	if _, err := s.GetQuestion(id); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}

func (s *QuestionService) GetQuestion(id uint) (*model.Question, error) {
	q, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) ListByQuiz(quizID uint) ([]model.Question, error) {
	return s.Repo.ListByQuiz(quizID)
}

// ForStudent 转换为学生视图：去掉标准答案，隐藏用例不暴露输入与期望输出
func (s *QuestionService) ForStudent(q model.Question) StudentQuestion {
	var dto StudentQuestion
	_ = copier.Copy(&dto, &q)
	dto.TestCases = make([]StudentTestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		stc := StudentTestCase{ID: tc.ID, Hidden: tc.Hidden, Points: tc.Points}
		if !tc.Hidden {
			stc.Input = tc.Input
			stc.ExpectedOutput = tc.ExpectedOutput
		}
		dto.TestCases = append(dto.TestCases, stc)
	}
	return dto
}

// LintRules 返回规则串中无法识别的规则，非 HTML/CSS 语言返回空
func (s *QuestionService) LintRules(language, rules string) []string {
	return validator.Lint(language, rules)
}

// RuleCatalogue 出题时可用的规则名
type RuleCatalogue struct {
	Language string   `json:"language"`
	Kinds    []string `json:"kinds"`
}

// ListRules 列出某种标记语言支持的全部规则
func (s *QuestionService) ListRules(language string) (*RuleCatalogue, error) {
	c := validator.CatalogueFor(language)
	if c == nil {
		return nil, fmt.Errorf("%w: no rule catalogue for %q", util.ErrInvalidInput, language)
	}
	return &RuleCatalogue{Language: c.Name(), Kinds: c.Kinds()}, nil
}

// LintTestCases 检查每个用例的规则串，序号从 1 开始
func (s *QuestionService) LintTestCases(language string, tcs []model.TestCase) []LintIssue {
	if !validator.IsMarkupLanguage(language) {
		return nil
	}
	var issues []LintIssue
	for i, tc := range tcs {
		if unknown := validator.Lint(language, tc.Input); len(unknown) > 0 {
			issues = append(issues, LintIssue{TestCase: i + 1, Unknown: unknown})
		}
	}
	return issues
}
