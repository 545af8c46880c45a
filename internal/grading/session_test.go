package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRunThenSubmit(t *testing.T) {
	s := NewSession("")

	s, err := Reduce(s, Event{Type: EventRunRequested, Code: "function f(){}"})
	require.NoError(t, err)
	assert.Equal(t, PhaseRunning, s.Phase)

	_, err = Reduce(s, Event{Type: EventRunRequested})
	assert.ErrorIs(t, err, ErrRunInProgress)

	run := &Report{Passed: 1, Total: 2}
	s, err = Reduce(s, Event{Type: EventRunCompleted, Report: run})
	require.NoError(t, err)
	assert.Equal(t, PhaseResultsShown, s.Phase)
	assert.Same(t, run, s.LastRun)

	final := &Report{Passed: 2, Total: 2}
	s, err = Reduce(s, Event{Type: EventSubmitRequested, Report: final})
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, s.Phase)
	assert.Same(t, final, s.Final)
	assert.Same(t, run, s.LastRun)
}

func TestSessionSubmitWithoutRun(t *testing.T) {
	s, err := Reduce(NewSession("x"), Event{Type: EventSubmitRequested, Report: &Report{}})
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, s.Phase)
	assert.Nil(t, s.LastRun)
}

func TestSessionSubmittedRefusesEverything(t *testing.T) {
	s := Session{Phase: PhaseSubmitted, Code: "done"}
	for _, typ := range []EventType{EventRunRequested, EventRunCompleted, EventSubmitRequested, EventCodeEdited} {
		next, err := Reduce(s, Event{Type: typ, Code: "changed", Report: &Report{}})
		assert.ErrorIs(t, err, ErrAlreadySubmitted, string(typ))
		assert.Equal(t, "done", next.Code)
	}
}

func TestSessionCodeEditMarksResultsStale(t *testing.T) {
	s := Session{Phase: PhaseResultsShown, LastRun: &Report{}}
	s, err := Reduce(s, Event{Type: EventCodeEdited, Code: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", s.Code)
	assert.True(t, s.Stale)
	assert.Equal(t, PhaseResultsShown, s.Phase)
}

func TestSessionInvalidTransitions(t *testing.T) {
	_, err := Reduce(NewSession(""), Event{Type: EventRunCompleted, Report: &Report{}})
	assert.ErrorIs(t, err, ErrNoRunInProgress)

	_, err = Reduce(Session{Phase: PhaseRunning}, Event{Type: EventRunCompleted})
	assert.ErrorIs(t, err, ErrMissingReport)

	_, err = Reduce(NewSession(""), Event{Type: EventSubmitRequested})
	assert.ErrorIs(t, err, ErrMissingReport)

	_, err = Reduce(NewSession(""), Event{Type: "bogus"})
	assert.Error(t, err)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewSession("a")
	_, err := Reduce(s, Event{Type: EventRunRequested, Code: "b"})
	require.NoError(t, err)
	assert.Equal(t, PhaseUnstarted, s.Phase)
	assert.Equal(t, "a", s.Code)
}

func TestMergeAnswer(t *testing.T) {
	score := 50.0
	state := MergeAnswer(AnswerState{}, Answer{Code: "x", Language: "javascript"})
	assert.Equal(t, "x", state.Code)
	assert.Equal(t, PhaseUnstarted, state.Phase)

	state = MergeAnswer(state, Answer{Results: []TestCaseResult{{Passed: true}}, Score: &score})
	assert.Equal(t, "x", state.Code)
	assert.Equal(t, PhaseResultsShown, state.Phase)
	require.NotNil(t, state.Score)
	assert.Equal(t, 50.0, *state.Score)

	score = 10
	assert.Equal(t, 50.0, *state.Score)

	state = MergeAnswer(state, Answer{Submitted: true})
	assert.True(t, state.Submitted)
	assert.Equal(t, PhaseSubmitted, state.Phase)

	after := MergeAnswer(state, Answer{Code: "rewritten"})
	assert.Equal(t, "x", after.Code)

	persisted := after.ToAnswer()
	assert.True(t, persisted.Submitted)
	assert.Len(t, persisted.Results, 1)
}
