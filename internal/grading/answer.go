package grading

// Answer 外部传入（持久化记录）的答案
type Answer struct {
	Code      string           `json:"code"`
	Language  string           `json:"language"`
	Results   []TestCaseResult `json:"results,omitempty"`
	Score     *float64         `json:"score,omitempty"`
	Submitted bool             `json:"submitted"`
}

// AnswerState 作答过程中的本地状态
type AnswerState struct {
	Code      string           `json:"code"`
	Language  string           `json:"language"`
	Results   []TestCaseResult `json:"results,omitempty"`
	Score     *float64         `json:"score,omitempty"`
	Submitted bool             `json:"submitted"`
	Phase     Phase            `json:"phase"`
}

// MergeAnswer 显式同步外部答案到本地状态。
// 已提交的状态不会被回退；空字段不覆盖本地已有值。
func MergeAnswer(state AnswerState, incoming Answer) AnswerState {
	if state.Phase == "" {
		state.Phase = PhaseUnstarted
	}
	if state.Submitted {
		return state
	}

	if incoming.Code != "" {
		state.Code = incoming.Code
	}
	if incoming.Language != "" {
		state.Language = incoming.Language
	}
	if incoming.Results != nil {
		state.Results = append([]TestCaseResult(nil), incoming.Results...)
	}
	if incoming.Score != nil {
		score := *incoming.Score
		state.Score = &score
	}

	switch {
	case incoming.Submitted:
		state.Submitted = true
		state.Phase = PhaseSubmitted
	case state.Results != nil && state.Phase == PhaseUnstarted:
		state.Phase = PhaseResultsShown
	}
	return state
}

// ToAnswer 将本地状态中的临时字段合并回持久化记录
func (s AnswerState) ToAnswer() Answer {
	return Answer{
		Code:      s.Code,
		Language:  s.Language,
		Results:   s.Results,
		Score:     s.Score,
		Submitted: s.Submitted,
	}
}
