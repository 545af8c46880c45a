package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"codequiz_backend/internal/config"
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/model"
	"codequiz_backend/internal/sandbox"
	"codequiz_backend/internal/util"
	"codequiz_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	quizzes     *memQuizzes
	questions   *memQuestions
	attempts    *memAttempts
	submissions *memSubmissions
	archiver    *fakeArchiver
	cache       *RedisResultCache

	questionSvc *QuestionService
	gradingSvc  *GradingService
	quizSvc     *QuizService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.InitNop()
	h := &harness{
		questions:   newMemQuestions(),
		attempts:    newMemAttempts(),
		submissions: newMemSubmissions(),
		archiver:    &fakeArchiver{},
	}
	h.quizzes = newMemQuizzes(h.questions)
	h.cache, _ = newMiniredisCache(t)

	grader := grading.NewGrader(sandbox.NewDispatcher(sandbox.NewJSExecutor(time.Second, 0, 0)), nil)
	cfg := config.GradingConfig{ArchiveReports: true, MaxSourceBytes: 1024, MaxTestCasesPerRun: 10}
	h.questionSvc = NewQuestionService(h.questions, h.quizzes)
	h.gradingSvc = NewGradingService(grader, h.questions, h.quizzes, h.attempts, h.submissions, h.cache, h.archiver, cfg)
	h.quizSvc = NewQuizService(h.quizzes, h.attempts, h.submissions, h.questionSvc, h.gradingSvc)
	return h
}

// seed 创建一个已发布测验：一道 JS 编程题、一道 HTML 编程题、一道单选、一道问答
func (h *harness) seed(t *testing.T, timeLimit int) (*model.Quiz, map[string]uint) {
	t.Helper()
	quiz := &model.Quiz{
		Title: "demo", IsPublished: true, PassingScore: 50, TimeLimit: timeLimit,
		Questions: []model.Question{
			{QuestionType: grading.TypeCoding, Prompt: "add", Points: 6, Language: "javascript", Order: 1,
				TestCases: []model.TestCase{
					{Input: "add(1, 2)", ExpectedOutput: "3", Points: 1, Order: 1},
					{Input: "add(2, 2)", ExpectedOutput: "4", Points: 1, Order: 2},
					{Input: "add(-1, 1)", ExpectedOutput: "0", Points: 1, Order: 3, Hidden: true},
				}},
			{QuestionType: grading.TypeCoding, Prompt: "page", Points: 2, Language: "html", Order: 2,
				TestCases: []model.TestCase{
					{Input: "contains:div", Points: 1, Order: 1},
				}},
			{QuestionType: grading.TypeMultipleChoice, Prompt: "pick", Points: 2, AnswerKey: json.RawMessage(`"b"`), Order: 3},
			{QuestionType: grading.TypeEssay, Prompt: "explain", Points: 4, Order: 4},
		},
	}
	require.NoError(t, h.quizzes.Create(quiz))
	ids := map[string]uint{
		"js":     quiz.Questions[0].ID,
		"html":   quiz.Questions[1].ID,
		"choice": quiz.Questions[2].ID,
		"essay":  quiz.Questions[3].ID,
	}
	return quiz, ids
}

const addImpl = "function add(a, b) { return a + b; }"

func TestPreview(t *testing.T) {
	h := newHarness(t)

	res, err := h.gradingSvc.Preview(PreviewReq{Language: "html", Code: "<DIV></DIV>", Rules: "contains:div;frobnicate"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"frobnicate"}, res.Unknown)

	res, err = h.gradingSvc.Preview(PreviewReq{Language: "html", Code: "<span></span>", Rules: "contains:div"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Missing <div> tag", res.Error)

	_, err = h.gradingSvc.Preview(PreviewReq{Language: "javascript", Code: "1", Rules: "x"})
	assert.ErrorIs(t, err, ErrPreviewLanguage)
}

func TestRunTestsUsesVisibleCasesOnly(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)

	res, err := h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	require.NoError(t, err)
	assert.Equal(t, grading.PhaseResultsShown, res.Phase)
	assert.Equal(t, 2, res.Report.Total)
	assert.Equal(t, 2, res.Report.Passed)
	assert.False(t, res.Cached)

	again, err := h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	require.NoError(t, err)
	assert.True(t, again.Cached)

	draft, err := h.submissions.FindLatest(9, ids["js"], nil)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, string(grading.PhaseResultsShown), draft.Phase)
	assert.Equal(t, addImpl, draft.Code)

	var ans grading.Answer
	require.NoError(t, json.Unmarshal(draft.Answer, &ans))
	assert.Equal(t, addImpl, ans.Code)
	assert.False(t, ans.Submitted)
}

func TestRunTestsRejectsNonCodingQuestion(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)
	_, err := h.gradingSvc.RunTests(context.Background(), 9, ids["choice"], CodeReq{Code: "x"})
	assert.ErrorIs(t, err, util.ErrNotCodingQuestion)

	_, err = h.gradingSvc.RunTests(context.Background(), 9, 999, CodeReq{Code: "x"})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestRunTestsSourceLimit(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)
	big := make([]byte, 2048)
	for i := range big {
		big[i] = ' '
	}
	_, err := h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: string(big)})
	assert.ErrorIs(t, err, util.ErrSourceTooLarge)
}

func TestSubmitGradesAllCasesAndMasksHidden(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)

	// 只对可见用例正确的实现
	partial := "function add(a, b) { return a === -1 ? 99 : a + b; }"
	res, err := h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: partial})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.Total)
	assert.Equal(t, 2, res.Report.Passed)
	assert.Equal(t, "67%", res.Report.Display)
	assert.InDelta(t, 4.0, res.Submission.PointsEarned, 0.001)
	assert.Equal(t, string(grading.PhaseSubmitted), res.Submission.Phase)
	assert.Equal(t, "/uploads/grading-reports/test.json", res.Submission.ReportURL)

	hidden := res.Report.Results[2]
	assert.True(t, hidden.Hidden)
	assert.False(t, hidden.Passed)
	assert.Empty(t, hidden.Input)
	assert.Empty(t, hidden.Expected)
	assert.Empty(t, hidden.Actual)

	require.Len(t, h.archiver.reports, 1)
	archived := h.archiver.reports[0].(archivedReport)
	assert.Equal(t, "add(-1, 1)", archived.Report.Results[2].Input)
}

func TestSubmitWithinAttemptOnlyOnce(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 0)
	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)

	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	require.NoError(t, err)

	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	assert.ErrorIs(t, err, grading.ErrAlreadySubmitted)

	_, err = h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	assert.ErrorIs(t, err, grading.ErrAlreadySubmitted)

	_, err = h.gradingSvc.Submit(context.Background(), 10, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestPracticeModeAllowsResubmission(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)

	_, err := h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: "function add(){ return 0; }"})
	require.NoError(t, err)
	second, err := h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Report.Passed)

	subs, err := h.gradingSvc.MySubmissions(9, ids["js"])
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSubmitArchiveFailureDoesNotFailSubmission(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)
	h.archiver.err = assert.AnError

	res, err := h.gradingSvc.Submit(context.Background(), 9, ids["html"], CodeReq{Code: "<div></div>"})
	require.NoError(t, err)
	assert.Empty(t, res.Submission.ReportURL)
	assert.Equal(t, "100%", res.Report.Display)
}

func TestExpiredAttemptRejectsRuns(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 1)
	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)

	attempt.StartedAt = time.Now().Add(-5 * time.Minute)
	require.NoError(t, h.attempts.Update(attempt))

	_, err = h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	assert.ErrorIs(t, err, util.ErrAttemptExpired)
}

func TestQuizLifecycle(t *testing.T) {
	h := newHarness(t)
	title := "Draft quiz"
	quiz, err := h.quizSvc.CreateQuiz(1, QuizReq{Title: &title})
	require.NoError(t, err)
	assert.False(t, quiz.IsPublished)

	_, err = h.quizSvc.GetQuizForStudent(quiz.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotPublished)
	_, err = h.quizSvc.StartAttempt(9, quiz.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotPublished)

	quiz, err = h.quizSvc.SetPublished(quiz.ID, true)
	require.NoError(t, err)
	assert.True(t, quiz.IsPublished)
	assert.NotNil(t, quiz.PublishedAt)

	empty := ""
	_, err = h.quizSvc.CreateQuiz(1, QuizReq{Title: &empty})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	require.NoError(t, h.quizSvc.DeleteQuiz(quiz.ID))
	assert.ErrorIs(t, h.quizSvc.DeleteQuiz(quiz.ID), util.ErrQuizNotFound)
}

func TestStudentQuizHidesAnswers(t *testing.T) {
	h := newHarness(t)
	quiz, _ := h.seed(t, 0)

	dto, err := h.quizSvc.GetQuizForStudent(quiz.ID)
	require.NoError(t, err)
	require.Len(t, dto.Questions, 4)
	assert.Equal(t, 14.0, dto.TotalPoints)

	js := dto.Questions[0]
	require.Len(t, js.TestCases, 3)
	assert.Equal(t, "add(1, 2)", js.TestCases[0].Input)
	assert.True(t, js.TestCases[2].Hidden)
	assert.Empty(t, js.TestCases[2].Input)
	assert.Empty(t, js.TestCases[2].ExpectedOutput)

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "answerKey")
}

func TestStartAttemptReusesInProgress(t *testing.T) {
	h := newHarness(t)
	quiz, _ := h.seed(t, 0)
	first, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)
	second, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSubmitAttemptScoresEveryQuestion(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 0)
	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)

	// JS 题单独提交过，整卷提交时沿用
	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl, AttemptID: &attempt.ID})
	require.NoError(t, err)

	res, err := h.quizSvc.SubmitAttempt(context.Background(), 9, attempt.ID, SubmitAttemptReq{Answers: map[uint]json.RawMessage{
		ids["html"]:   json.RawMessage(`{"code":"<section></section>"}`),
		ids["choice"]: json.RawMessage(`"B"`),
		ids["essay"]:  json.RawMessage(`"because"`),
	}})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 4)

	assert.Equal(t, 6.0, res.Outcomes[0].PointsEarned)
	assert.Equal(t, 0.0, res.Outcomes[1].PointsEarned)
	assert.Equal(t, 2.0, res.Outcomes[2].PointsEarned)
	assert.True(t, res.Outcomes[3].Manual)

	assert.Equal(t, model.AttemptSubmitted, res.Attempt.Status)
	assert.True(t, res.Attempt.NeedsReview)
	assert.Equal(t, 8.0, res.Attempt.PointsEarned)
	assert.Equal(t, 14.0, res.Attempt.PointsPossible)
	assert.Equal(t, "57%", res.Display)
	assert.True(t, res.Attempt.Passed)

	_, err = h.quizSvc.SubmitAttempt(context.Background(), 9, attempt.ID, SubmitAttemptReq{})
	assert.ErrorIs(t, err, util.ErrAttemptSubmitted)
}

func TestQuestionServiceValidation(t *testing.T) {
	h := newHarness(t)
	quiz, _ := h.seed(t, 0)

	bad := "poll"
	prompt := "p"
	_, err := h.questionSvc.CreateQuestion(quiz.ID, QuestionReq{QuestionType: &bad, Prompt: &prompt})
	assert.ErrorIs(t, err, util.ErrInvalidQuestionType)

	coding := grading.TypeCoding
	_, err = h.questionSvc.CreateQuestion(quiz.ID, QuestionReq{QuestionType: &coding, Prompt: &prompt})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = h.questionSvc.CreateQuestion(999, QuestionReq{QuestionType: &coding, Prompt: &prompt})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)

	lang := "CSS"
	q, err := h.questionSvc.CreateQuestion(quiz.ID, QuestionReq{
		QuestionType: &coding, Prompt: &prompt, Language: &lang,
		TestCases: &[]TestCaseReq{{Input: "selector:.btn;frob"}, {Input: "property:color", Points: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "css", q.Language)
	require.Len(t, q.TestCases, 2)
	assert.Equal(t, 1.0, q.TestCases[0].Points)
	assert.Equal(t, 2, q.TestCases[1].Order)

	issues := h.questionSvc.LintTestCases(q.Language, q.TestCases)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].TestCase)
	assert.Equal(t, []string{"frob"}, issues[0].Unknown)

	assert.Equal(t, []string{"nope"}, h.questionSvc.LintRules("html", "has-title;nope"))
	assert.Nil(t, h.questionSvc.LintRules("javascript", "anything"))

	newPrompt := "updated"
	updated, err := h.questionSvc.UpdateQuestion(q.ID, QuestionReq{Prompt: &newPrompt, TestCases: &[]TestCaseReq{{Input: "property:margin"}}})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Prompt)
	assert.Len(t, updated.TestCases, 1)
}

func TestSubmitResponsesNeverExposeHiddenCases(t *testing.T) {
	h := newHarness(t)
	_, ids := h.seed(t, 0)

	_, err := h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	require.NoError(t, err)
	res, err := h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "add(-1, 1)")
	assert.NotContains(t, string(data), `"expected":"0"`)
	assert.Contains(t, string(data), "add(1, 2)")

	subs, err := h.gradingSvc.MySubmissions(9, ids["js"])
	require.NoError(t, err)
	require.Len(t, subs, 1)
	data, err = json.Marshal(subs)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "add(-1, 1)")
	assert.NotContains(t, string(subs[0].Answer), "add(-1, 1)")

	// 库中仍保留完整结果，教师端可见
	stored, err := h.submissions.FindLatest(9, ids["js"], nil)
	require.NoError(t, err)
	assert.Contains(t, string(stored.Results), "add(-1, 1)")
	assert.Contains(t, string(stored.Answer), "add(-1, 1)")
}

func TestMaskStoredAnswerKeepsObjectiveAnswers(t *testing.T) {
	raw := json.RawMessage(`"b"`)
	assert.Equal(t, raw, maskStoredAnswer(raw))

	code := json.RawMessage(`{"code":"x"}`)
	assert.Equal(t, code, maskStoredAnswer(code))
}

// flakyExecutor 前 failures 次调用返回基础设施错误
type flakyExecutor struct {
	failures int
	calls    int
}

func (f *flakyExecutor) Supports(string) bool { return true }

func (f *flakyExecutor) Execute(_ context.Context, p sandbox.Program) (sandbox.Output, error) {
	f.calls++
	if f.calls <= f.failures {
		return sandbox.Output{}, errors.New("judge0 request failed: connection refused")
	}
	return sandbox.Output{Value: "3"}, nil
}

func TestSandboxFailuresAreNotCached(t *testing.T) {
	h := newHarness(t)
	quiz, _ := h.seed(t, 0)
	q := &model.Question{QuizID: quiz.ID, QuestionType: grading.TypeCoding, Prompt: "sum", Points: 1, Language: "python",
		TestCases: []model.TestCase{{Input: "1 2", ExpectedOutput: "3", Points: 1}}}
	require.NoError(t, h.questions.Create(q))

	exec := &flakyExecutor{failures: 1}
	h.gradingSvc.Grader = grading.NewGrader(exec, nil)
	code := "print(sum(map(int, input().split())))"

	first, err := h.gradingSvc.RunTests(context.Background(), 9, q.ID, CodeReq{Code: code})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Report.Passed)
	assert.Equal(t, grading.OutcomeError, first.Report.Results[0].Outcome)

	second, err := h.gradingSvc.RunTests(context.Background(), 9, q.ID, CodeReq{Code: code})
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, 1, second.Report.Passed)
	assert.Equal(t, 2, exec.calls)

	third, err := h.gradingSvc.RunTests(context.Background(), 9, q.ID, CodeReq{Code: code})
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Equal(t, 2, exec.calls)
}

func TestUnpublishedQuizQuestionsRejectStudentRuns(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 0)
	_, err := h.quizSvc.SetPublished(quiz.ID, false)
	require.NoError(t, err)

	_, err = h.gradingSvc.RunTests(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	assert.ErrorIs(t, err, util.ErrQuizNotPublished)
	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], CodeReq{Code: addImpl})
	assert.ErrorIs(t, err, util.ErrQuizNotPublished)

	subs, err := h.submissions.ListByUserAndQuestion(9, ids["js"])
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubmitAttemptUnweightedCodingQuestionUsesCasePoints(t *testing.T) {
	h := newHarness(t)
	quiz := &model.Quiz{
		Title: "weights", IsPublished: true, PassingScore: 80,
		Questions: []model.Question{
			{QuestionType: grading.TypeCoding, Prompt: "add", Points: 0, Language: "javascript", Order: 1,
				TestCases: []model.TestCase{{Input: "add(1, 2)", ExpectedOutput: "3", Points: 3}}},
			{QuestionType: grading.TypeMultipleChoice, Prompt: "pick", Points: 1, AnswerKey: json.RawMessage(`"a"`), Order: 2},
		},
	}
	require.NoError(t, h.quizzes.Create(quiz))

	dto, err := h.quizSvc.GetQuizForStudent(quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, dto.TotalPoints)

	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)
	res, err := h.quizSvc.SubmitAttempt(context.Background(), 9, attempt.ID, SubmitAttemptReq{Answers: map[uint]json.RawMessage{
		quiz.Questions[0].ID: json.RawMessage(`{"code":"function add(a, b) { return a + b; }"}`),
		quiz.Questions[1].ID: json.RawMessage(`"a"`),
	}})
	require.NoError(t, err)

	assert.Equal(t, 3.0, res.Outcomes[0].PointsMax)
	assert.Equal(t, 3.0, res.Outcomes[0].PointsEarned)
	assert.Equal(t, 4.0, res.Attempt.PointsEarned)
	assert.Equal(t, 4.0, res.Attempt.PointsPossible)
	assert.Equal(t, "100%", res.Display)
	assert.LessOrEqual(t, res.Attempt.Score, 100.0)
}

// staleSubmissions 模拟并发的第二个请求：FindLatest 返回它开始时读到的快照
type staleSubmissions struct {
	*memSubmissions
	latest *model.Submission
}

func (s *staleSubmissions) FindLatest(uint, uint, *uint) (*model.Submission, error) {
	if s.latest == nil {
		return nil, nil
	}
	cp := *s.latest
	return &cp, nil
}

func TestConcurrentAttemptSubmitsKeepOneSubmission(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 0)
	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)
	req := CodeReq{Code: addImpl, AttemptID: &attempt.ID}

	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], req)
	require.NoError(t, err)

	// 第二个请求在第一次写入前读到"尚无记录"
	h.gradingSvc.Submissions = &staleSubmissions{memSubmissions: h.submissions}
	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], req)
	assert.ErrorIs(t, err, grading.ErrAlreadySubmitted)

	subs, err := h.submissions.ListByAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestConcurrentSubmitOverDraftKeepsSubmittedPhase(t *testing.T) {
	h := newHarness(t)
	quiz, ids := h.seed(t, 0)
	attempt, err := h.quizSvc.StartAttempt(9, quiz.ID)
	require.NoError(t, err)
	req := CodeReq{Code: addImpl, AttemptID: &attempt.ID}

	_, err = h.gradingSvc.RunTests(context.Background(), 9, ids["js"], req)
	require.NoError(t, err)
	draft, err := h.submissions.FindLatest(9, ids["js"], &attempt.ID)
	require.NoError(t, err)

	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], req)
	require.NoError(t, err)

	// 两个并发请求都读到了提交前的草稿
	h.gradingSvc.Submissions = &staleSubmissions{memSubmissions: h.submissions, latest: draft}
	_, err = h.gradingSvc.Submit(context.Background(), 9, ids["js"], req)
	assert.ErrorIs(t, err, grading.ErrAlreadySubmitted)
	_, err = h.gradingSvc.RunTests(context.Background(), 9, ids["js"], req)
	assert.ErrorIs(t, err, grading.ErrAlreadySubmitted)

	stored, err := h.submissions.FindByID(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, string(grading.PhaseSubmitted), stored.Phase)
}

func TestListRules(t *testing.T) {
	h := newHarness(t)

	cat, err := h.questionSvc.ListRules("CSS")
	require.NoError(t, err)
	assert.Equal(t, "css", cat.Language)
	assert.Contains(t, cat.Kinds, "uses-flexbox")
	assert.IsIncreasing(t, cat.Kinds)

	_, err = h.questionSvc.ListRules("python")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}
