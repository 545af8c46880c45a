package grading

import "errors"

// Phase 编程题作答阶段
type Phase string

const (
	PhaseUnstarted    Phase = "unstarted"
	PhaseRunning      Phase = "running"
	PhaseResultsShown Phase = "results-shown"
	PhaseSubmitted    Phase = "submitted"
)

var (
	ErrAlreadySubmitted = errors.New("answer already submitted")
	ErrRunInProgress    = errors.New("test run already in progress")
	ErrNoRunInProgress  = errors.New("no test run in progress")
	ErrMissingReport    = errors.New("event requires a grading report")
)

type EventType string

const (
	EventRunRequested    EventType = "run_requested"
	EventRunCompleted    EventType = "run_completed"
	EventSubmitRequested EventType = "submit_requested"
	EventCodeEdited      EventType = "code_edited"
)

type Event struct {
	Type EventType
	Code string
	// Report RunCompleted 与 SubmitRequested 携带的评测结果
	Report *Report
}

// Session 单道编程题的作答状态
type Session struct {
	Phase   Phase   `json:"phase"`
	Code    string  `json:"code"`
	LastRun *Report `json:"lastRun,omitempty"`
	Final   *Report `json:"final,omitempty"`
	// Stale 最近一次运行结果之后代码又被修改过
	Stale bool `json:"stale"`
}

func NewSession(code string) Session {
	return Session{Phase: PhaseUnstarted, Code: code}
}

// Reduce 纯函数状态迁移，不修改入参
func Reduce(s Session, e Event) (Session, error) {
	if s.Phase == "" {
		s.Phase = PhaseUnstarted
	}
	if s.Phase == PhaseSubmitted {
		return s, ErrAlreadySubmitted
	}

	switch e.Type {
	case EventCodeEdited:
		s.Code = e.Code
		s.Stale = s.LastRun != nil
		return s, nil

	case EventRunRequested:
		if s.Phase == PhaseRunning {
			return s, ErrRunInProgress
		}
		if e.Code != "" {
			s.Code = e.Code
		}
		s.Phase = PhaseRunning
		return s, nil

	case EventRunCompleted:
		if s.Phase != PhaseRunning {
			return s, ErrNoRunInProgress
		}
		if e.Report == nil {
			return s, ErrMissingReport
		}
		s.Phase = PhaseResultsShown
		s.LastRun = e.Report
		s.Stale = false
		return s, nil

	case EventSubmitRequested:
		// 提交不依赖之前的运行，结果由调用方重新计算
		if e.Report == nil {
			return s, ErrMissingReport
		}
		if e.Code != "" {
			s.Code = e.Code
		}
		s.Phase = PhaseSubmitted
		s.Final = e.Report
		return s, nil
	}

	return s, errors.New("unknown event: " + string(e.Type))
}
