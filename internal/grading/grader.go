// Package grading 评测编程题：HTML/CSS 走规则校验，其余语言交给沙箱执行后比对输出。
package grading

import (
	"context"
	"errors"
	"strings"
	"time"

	"codequiz_backend/internal/sandbox"
	"codequiz_backend/internal/validator"
)

// 评测结果分类，用于指标标签
const (
	OutcomePassed    = "passed"
	OutcomeFailed    = "failed"
	OutcomeUserError = "user_error"
	OutcomeTimeout   = "timeout"
	OutcomeError     = "error"
)

// TestCase 测试用例。HTML/CSS 题中 Input 为分号分隔的规则串
type TestCase struct {
	ID       uint
	Input    string
	Expected string
	Hidden   bool
	Points   float64
}

type TestCaseResult struct {
	TestCaseID uint     `json:"testCaseId"`
	Input      string   `json:"input"`
	Expected   string   `json:"expected"`
	Actual     string   `json:"actual"`
	Passed     bool     `json:"passed"`
	Hidden     bool     `json:"hidden"`
	Points     float64  `json:"points"`
	Error      string   `json:"error,omitempty"`
	Logs       []string `json:"logs,omitempty"`
	DurationMs int64    `json:"durationMs"`
	Outcome    string   `json:"outcome"`
}

// Infrastructure 用例因沙箱本身的问题（超时、网络、语言不支持）而未能得出结论
func (r TestCaseResult) Infrastructure() bool {
	return r.Outcome == OutcomeError || r.Outcome == OutcomeTimeout
}

// Report 一次完整评测的汇总
type Report struct {
	Results        []TestCaseResult `json:"results"`
	Passed         int              `json:"passed"`
	Total          int              `json:"total"`
	Score          float64          `json:"score"`
	Display        string           `json:"display"`
	PointsEarned   float64          `json:"pointsEarned"`
	PointsPossible float64          `json:"pointsPossible"`
}

// Cacheable 所有用例都得出了确定结论时，报告才可以按代码缓存
func (r Report) Cacheable() bool {
	for _, res := range r.Results {
		if res.Infrastructure() {
			return false
		}
	}
	return true
}

// Observer 接收评测过程中的观测数据，nil 表示不记录
type Observer interface {
	ObserveRun(language, outcome string, elapsed time.Duration)
	ObserveRuleFailure(kind string)
}

type Grader struct {
	exec     sandbox.Executor
	observer Observer
}

func NewGrader(exec sandbox.Executor, observer Observer) *Grader {
	return &Grader{exec: exec, observer: observer}
}

// RunTestCase 评测单个测试用例。执行失败只记录在结果中，不会中断整体评测
func (g *Grader) RunTestCase(ctx context.Context, language, code string, tc TestCase) TestCaseResult {
	res := TestCaseResult{
		TestCaseID: tc.ID,
		Input:      tc.Input,
		Expected:   tc.Expected,
		Hidden:     tc.Hidden,
		Points:     tc.Points,
	}
	start := time.Now()
	outcome := OutcomeFailed

	if validator.IsMarkupLanguage(language) {
		report, _ := validator.Evaluate(language, code, tc.Input)
		result := report.Result()
		res.Passed = result.Success
		res.Actual = result.Output
		res.Error = result.Error
		if g.observer != nil {
			for _, f := range report.Failures {
				g.observer.ObserveRuleFailure(f.Kind)
			}
		}
		if res.Passed {
			outcome = OutcomePassed
		}
	} else {
		outcome = g.execute(ctx, language, code, tc, &res)
	}

	elapsed := time.Since(start)
	res.DurationMs = elapsed.Milliseconds()
	res.Outcome = outcome
	if g.observer != nil {
		g.observer.ObserveRun(strings.ToLower(language), outcome, elapsed)
	}
	return res
}

func (g *Grader) execute(ctx context.Context, language, code string, tc TestCase, res *TestCaseResult) string {
	if g.exec == nil {
		res.Error = sandbox.ErrUnsupportedLanguage.Error()
		return OutcomeError
	}
	out, err := g.exec.Execute(ctx, sandbox.Program{Language: language, Source: code, InputExpr: tc.Input})
	res.Logs = out.Logs
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		res.Error = err.Error()
		return OutcomeTimeout
	case err != nil:
		res.Error = err.Error()
		return OutcomeError
	case out.Failed():
		res.Error = out.Err
		return OutcomeUserError
	}
	res.Actual = out.Value
	res.Passed = strings.TrimSpace(out.Value) == strings.TrimSpace(tc.Expected)
	if res.Passed {
		return OutcomePassed
	}
	return OutcomeFailed
}

// RunAll 按顺序同步评测全部用例，不做重试
func (g *Grader) RunAll(ctx context.Context, language, code string, tcs []TestCase) Report {
	results := make([]TestCaseResult, 0, len(tcs))
	for _, tc := range tcs {
		results = append(results, g.RunTestCase(ctx, language, code, tc))
	}
	return Summarize(results)
}

// Summarize 根据用例结果计算通过数、得分与积分
func Summarize(results []TestCaseResult) Report {
	r := Report{Results: results, Total: len(results)}
	for _, res := range results {
		r.PointsPossible += res.Points
		if res.Passed {
			r.Passed++
		}
	}
	r.Score = Score(r.Passed, r.Total)
	r.Display = DisplayPercent(r.Score)
	r.PointsEarned = PointsEarned(results)
	return r
}
