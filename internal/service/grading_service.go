package service

import (
	"codequiz_backend/internal/config"
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/model"
	"codequiz_backend/internal/util"
	"codequiz_backend/internal/validator"
	"codequiz_backend/pkg/logger"
	"codequiz_backend/pkg/tracing"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPreviewLanguage = errors.New("preview only supports html and css")

// ReportArchiver 归档完整评测报告
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, questionID uint, report interface{}) (string, error)
}

type GradingService struct {
	Grader      *grading.Grader
	Questions   QuestionStore
	Attempts    AttemptStore
	Quizzes     QuizStore
	Submissions SubmissionStore
	Cache       ResultCache
	Archiver    ReportArchiver

	mu  sync.RWMutex
	cfg config.GradingConfig
}

func NewGradingService(
	grader *grading.Grader,
	questions QuestionStore,
	quizzes QuizStore,
	attempts AttemptStore,
	submissions SubmissionStore,
	cache ResultCache,
	archiver ReportArchiver,
	cfg config.GradingConfig,
) *GradingService {
	return &GradingService{
		Grader:      grader,
		Questions:   questions,
		Quizzes:     quizzes,
		Attempts:    attempts,
		Submissions: submissions,
		Cache:       cache,
		Archiver:    archiver,
		cfg:         cfg,
	}
}

// UpdateConfig 配置热更新
func (s *GradingService) UpdateConfig(cfg config.GradingConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *GradingService) config() config.GradingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type PreviewReq struct {
	Language string `json:"language" binding:"required"`
	Code     string `json:"code"`
	Rules    string `json:"rules" binding:"required"`
}

type PreviewResult struct {
	validator.Result
	Failures []validator.Failure `json:"failures,omitempty"`
	Unknown  []string            `json:"unknown,omitempty"`
	Checked  int                 `json:"checked"`
}

type CodeReq struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	AttemptID *uint  `json:"attemptId"`
}

type RunResult struct {
	Phase  grading.Phase  `json:"phase"`
	Report grading.Report `json:"report"`
	Cached bool           `json:"cached"`
}

type SubmitResult struct {
	Submission *model.Submission `json:"submission"`
	Report     grading.Report    `json:"report"`
}

// Preview 使用临时规则校验 HTML/CSS，不落库
func (s *GradingService) Preview(req PreviewReq) (*PreviewResult, error) {
	if err := s.checkSource(req.Code); err != nil {
		return nil, err
	}
	report, ok := validator.Evaluate(req.Language, req.Code, req.Rules)
	if !ok {
		return nil, ErrPreviewLanguage
	}
	return &PreviewResult{
		Result:   report.Result(),
		Failures: report.Failures,
		Unknown:  report.Unknown,
		Checked:  report.Checked,
	}, nil
}

func (s *GradingService) checkSource(code string) error {
	if limit := s.config().MaxSourceBytes; limit > 0 && len(code) > limit {
		return util.ErrSourceTooLarge
	}
	return nil
}

func (s *GradingService) loadCodingQuestion(id uint) (*model.Question, error) {
	q, err := s.Questions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if q.QuestionType != grading.TypeCoding {
		return nil, util.ErrNotCodingQuestion
	}
	return q, nil
}

// loadPublishedQuestion 学生作答的入口：题目所属测验必须已发布
func (s *GradingService) loadPublishedQuestion(id uint) (*model.Question, *model.Quiz, error) {
	q, err := s.loadCodingQuestion(id)
	if err != nil {
		return nil, nil, err
	}
	quiz, err := s.Quizzes.FindByID(q.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuestionNotFound
		}
		return nil, nil, err
	}
	if !quiz.IsPublished {
		return nil, nil, util.ErrQuizNotPublished
	}
	return q, quiz, nil
}

// checkAttempt 作答属于某次测验尝试时，校验归属、状态与时限
func (s *GradingService) checkAttempt(userID uint, quiz *model.Quiz, attemptID *uint) error {
	if attemptID == nil {
		return nil
	}
	attempt, err := s.Attempts.FindByID(*attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAttemptNotFound
		}
		return err
	}
	if attempt.UserID != userID {
		return util.ErrPermissionDenied
	}
	if attempt.QuizID != quiz.ID {
		return util.ErrQuestionNotFound
	}
	if attempt.Status == model.AttemptSubmitted {
		return util.ErrAttemptSubmitted
	}
	if attemptExpired(quiz, attempt, time.Now()) {
		return util.ErrAttemptExpired
	}
	return nil
}

// attemptExpired 限时测验允许一分钟宽限
func attemptExpired(quiz *model.Quiz, attempt *model.QuizAttempt, now time.Time) bool {
	if quiz.TimeLimit <= 0 {
		return false
	}
	deadline := attempt.StartedAt.Add(time.Duration(quiz.TimeLimit)*time.Minute + time.Minute)
	return now.After(deadline)
}

func toGradingCases(tcs []model.TestCase, visibleOnly bool) []grading.TestCase {
	out := make([]grading.TestCase, 0, len(tcs))
	for _, tc := range tcs {
		if visibleOnly && tc.Hidden {
			continue
		}
		out = append(out, grading.TestCase{
			ID:       tc.ID,
			Input:    tc.Input,
			Expected: tc.ExpectedOutput,
			Hidden:   tc.Hidden,
			Points:   tc.Points,
		})
	}
	return out
}

// evaluate 评测题目，命中缓存时直接返回
func (s *GradingService) evaluate(ctx context.Context, q *model.Question, language, code string, visibleOnly bool) (grading.Report, bool, error) {
	cfg := s.config()
	if err := s.checkSource(code); err != nil {
		return grading.Report{}, false, err
	}
	cases := toGradingCases(q.TestCases, visibleOnly)
	if len(cases) == 0 {
		return grading.Report{}, false, util.ErrNoTestCases
	}
	if cfg.MaxTestCasesPerRun > 0 && len(cases) > cfg.MaxTestCasesPerRun {
		return grading.Report{}, false, util.ErrTooManyTestCases
	}

	scope := "submit"
	if visibleOnly {
		scope = "run"
	}
	key := ResultCacheKey(q.ID, q.UpdatedAt.UnixNano(), scope, language, code)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok {
			return *cached, true, nil
		}
	}

	report := s.Grader.RunAll(ctx, language, code, cases)
	if !report.Cacheable() {
		logger.Log.Warn("grading hit sandbox errors, result not cached",
			zap.Uint("questionId", q.ID), zap.String("language", language))
		return report, false, nil
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, key, &report, cfg.CacheTTL())
	}
	return report, false, nil
}

func languageFor(q *model.Question, requested string) string {
	if q.Language != "" {
		return q.Language
	}
	return strings.ToLower(strings.TrimSpace(requested))
}

// sessionOf 从最近一次作答记录恢复状态
func sessionOf(sub *model.Submission) grading.Session {
	if sub == nil {
		return grading.NewSession("")
	}
	return grading.Session{Phase: grading.Phase(sub.Phase), Code: sub.Code}
}

// mergeAnswer 把本次评测产生的临时状态合并进持久化的答案字段
func mergeAnswer(sub *model.Submission, incoming grading.Answer) {
	var state grading.AnswerState
	if len(sub.Answer) > 0 {
		_ = json.Unmarshal(sub.Answer, &state)
	}
	state = grading.MergeAnswer(state, incoming)
	data, err := json.Marshal(state.ToAnswer())
	if err == nil {
		sub.Answer = data
	}
}

func marshalResults(results []grading.TestCaseResult) json.RawMessage {
	data, _ := json.Marshal(results)
	return data
}

// RunTests 只运行可见用例，结果保存为 results-shown 阶段的草稿
func (s *GradingService) RunTests(ctx context.Context, userID, questionID uint, req CodeReq) (*RunResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "grading.RunTests")
	defer span.End()

	q, quiz, err := s.loadPublishedQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttempt(userID, quiz, req.AttemptID); err != nil {
		return nil, err
	}
	language := languageFor(q, req.Language)
	span.SetAttributes(attribute.Int("question.id", int(q.ID)), attribute.String("language", language))

	draft, err := s.Submissions.FindLatest(userID, questionID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	session := sessionOf(draft)
	if req.AttemptID == nil && session.Phase == grading.PhaseSubmitted {
		// 练习模式下已提交的记录不再变更，新的运行开启新的草稿
		draft, session = nil, grading.NewSession("")
	}

	session, err = grading.Reduce(session, grading.Event{Type: grading.EventRunRequested, Code: req.Code})
	if err != nil {
		return nil, err
	}

	report, cached, err := s.evaluate(ctx, q, language, req.Code, true)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	session, err = grading.Reduce(session, grading.Event{Type: grading.EventRunCompleted, Report: &report})
	if err != nil {
		return nil, err
	}

	if draft == nil {
		draft = &model.Submission{AttemptID: req.AttemptID, QuestionID: questionID, UserID: userID}
	}
	draft.Language = language
	draft.Code = session.Code
	draft.Phase = string(session.Phase)
	draft.Score = report.Score
	draft.PointsEarned = 0
	draft.Passed = report.Passed
	draft.Total = report.Total
	draft.Results = marshalResults(report.Results)
	mergeAnswer(draft, grading.Answer{Code: session.Code, Language: language, Results: report.Results, Score: &report.Score})

	if err := s.saveDraft(draft); err != nil {
		return nil, err
	}

	return &RunResult{Phase: session.Phase, Report: report, Cached: cached}, nil
}

// Submit 重新评测全部用例（与之前的运行结果无关），保存并归档报告
func (s *GradingService) Submit(ctx context.Context, userID, questionID uint, req CodeReq) (*SubmitResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "grading.Submit")
	defer span.End()

	q, quiz, err := s.loadPublishedQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttempt(userID, quiz, req.AttemptID); err != nil {
		return nil, err
	}
	language := languageFor(q, req.Language)
	span.SetAttributes(attribute.Int("question.id", int(q.ID)), attribute.String("language", language))

	sub, err := s.Submissions.FindLatest(userID, questionID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	session := sessionOf(sub)
	if req.AttemptID == nil && session.Phase == grading.PhaseSubmitted {
		// 练习模式允许多次提交
		sub, session = nil, grading.NewSession("")
	}
	if session.Phase == grading.PhaseSubmitted {
		return nil, grading.ErrAlreadySubmitted
	}

	report, _, err := s.evaluate(ctx, q, language, req.Code, false)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	session, err = grading.Reduce(session, grading.Event{Type: grading.EventSubmitRequested, Code: req.Code, Report: &report})
	if err != nil {
		return nil, err
	}

	if sub == nil {
		sub = &model.Submission{AttemptID: req.AttemptID, QuestionID: questionID, UserID: userID}
	}
	now := time.Now()
	earned := scaleToQuestion(q.Points, report)
	sub.Language = language
	sub.Code = session.Code
	sub.Phase = string(session.Phase)
	sub.Score = report.Score
	sub.PointsEarned = earned
	sub.Passed = report.Passed
	sub.Total = report.Total
	sub.Results = marshalResults(report.Results)
	sub.SubmittedAt = &now
	mergeAnswer(sub, grading.Answer{Code: session.Code, Language: language, Results: report.Results, Score: &report.Score, Submitted: true})

	if s.config().ArchiveReports && s.Archiver != nil {
		url, err := s.Archiver.ArchiveReport(ctx, q.ID, archivedReport{
			QuestionID:  q.ID,
			UserID:      userID,
			AttemptID:   req.AttemptID,
			Language:    language,
			Code:        session.Code,
			Report:      report,
			SubmittedAt: now,
		})
		if err != nil {
			// 归档失败不影响提交
			logger.Log.Warn("archive grading report failed", zap.Uint("questionId", q.ID), zap.Error(err))
			span.RecordError(err)
		} else {
			sub.ReportURL = url
		}
	}

	if err := s.saveSubmitted(sub); err != nil {
		return nil, err
	}

	logger.Log.Info("coding answer submitted",
		zap.Uint("userId", userID),
		zap.Uint("questionId", questionID),
		zap.String("language", language),
		zap.String("score", report.Display))

	masked := maskSubmission(*sub)
	return &SubmitResult{Submission: &masked, Report: MaskHidden(report)}, nil
}

// saveDraft 写入运行结果草稿。并发请求已抢先建档或已提交时返回冲突
func (s *GradingService) saveDraft(draft *model.Submission) error {
	if draft.ID == 0 {
		err := s.Submissions.Create(draft)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return grading.ErrRunInProgress
		}
		return err
	}
	return s.updateUnlessSubmitted(draft)
}

// saveSubmitted 写入最终提交。同一次尝试内同一题只会有一条提交成功
func (s *GradingService) saveSubmitted(sub *model.Submission) error {
	if sub.ID == 0 {
		err := s.Submissions.Create(sub)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return grading.ErrAlreadySubmitted
		}
		return err
	}
	return s.updateUnlessSubmitted(sub)
}

func (s *GradingService) updateUnlessSubmitted(sub *model.Submission) error {
	ok, err := s.Submissions.UpdateUnlessSubmitted(sub)
	if err != nil {
		return err
	}
	if !ok {
		return grading.ErrAlreadySubmitted
	}
	return nil
}

type archivedReport struct {
	QuestionID  uint           `json:"questionId"`
	UserID      uint           `json:"userId"`
	AttemptID   *uint          `json:"attemptId,omitempty"`
	Language    string         `json:"language"`
	Code        string         `json:"code"`
	Report      grading.Report `json:"report"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// questionMaxPoints 题目满分；未设分值的编程题以用例积分之和为满分，与 scaleToQuestion 一致
func questionMaxPoints(q *model.Question) float64 {
	if q.Points > 0 || q.QuestionType != grading.TypeCoding {
		return q.Points
	}
	var total float64
	for _, tc := range q.TestCases {
		total += tc.Points
	}
	return total
}

// scaleToQuestion 按测试用例积分比例折算题目分值；题目未设分值时直接使用用例积分
func scaleToQuestion(points float64, report grading.Report) float64 {
	if points <= 0 {
		return report.PointsEarned
	}
	if report.PointsPossible <= 0 {
		return 0
	}
	return points * report.PointsEarned / report.PointsPossible
}

// MaskHidden 学生只能看到隐藏用例是否通过
func MaskHidden(report grading.Report) grading.Report {
	masked := report
	masked.Results = make([]grading.TestCaseResult, len(report.Results))
	for i, r := range report.Results {
		if r.Hidden {
			r.Input, r.Expected, r.Actual, r.Logs = "", "", "", nil
			if r.Error != "" {
				r.Error = "hidden test case failed"
			}
		}
		masked.Results[i] = r
	}
	return masked
}

// GradeForAttempt 测验整体提交时评测未单独提交过的编程题
func (s *GradingService) GradeForAttempt(ctx context.Context, q *model.Question, language, code string) (grading.Report, error) {
	report, _, err := s.evaluate(ctx, q, languageFor(q, language), code, false)
	return report, err
}

func (s *GradingService) MySubmissions(userID, questionID uint) ([]model.Submission, error) {
	if _, err := s.loadCodingQuestion(questionID); err != nil {
		return nil, err
	}
	subs, err := s.Submissions.ListByUserAndQuestion(userID, questionID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i] = maskSubmission(subs[i])
	}
	return subs, nil
}

// maskSubmission 返回给学生的副本，结果和答案里的隐藏用例都做同样处理
func maskSubmission(sub model.Submission) model.Submission {
	sub.Results = maskStoredResults(sub.Results)
	sub.Answer = maskStoredAnswer(sub.Answer)
	return sub
}

// maskStoredAnswer 只处理带评测结果的编程题答案，其他题型原样返回
func maskStoredAnswer(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var ans grading.Answer
	if err := json.Unmarshal(raw, &ans); err != nil || len(ans.Results) == 0 {
		return raw
	}
	ans.Results = MaskHidden(grading.Report{Results: ans.Results}).Results
	data, err := json.Marshal(ans)
	if err != nil {
		return raw
	}
	return data
}

// maskStoredResults 对已保存的结果做同样的隐藏处理
func maskStoredResults(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var results []grading.TestCaseResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return raw
	}
	masked := MaskHidden(grading.Report{Results: results})
	return marshalResults(masked.Results)
}

func (s *GradingService) ListSubmissions(questionID uint, page, limit int) ([]model.Submission, int64, error) {
	return s.Submissions.ListByQuestion(questionID, page, limit)
}
