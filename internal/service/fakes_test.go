package service

import (
	"context"
	"sort"
	"sync"

	"codequiz_backend/internal/model"

	"gorm.io/gorm"
)

type memQuizzes struct {
	mu      sync.Mutex
	nextID  uint
	quizzes map[uint]*model.Quiz
	qs      *memQuestions
}

func newMemQuizzes(qs *memQuestions) *memQuizzes {
	return &memQuizzes{quizzes: map[uint]*model.Quiz{}, qs: qs}
}

func (m *memQuizzes) Create(q *model.Quiz) error {
	m.mu.Lock()
	m.nextID++
	q.ID = m.nextID
	questions := q.Questions
	q.Questions = nil
	cp := *q
	m.quizzes[q.ID] = &cp
	m.mu.Unlock()
	for i := range questions {
		questions[i].QuizID = q.ID
		if err := m.qs.Create(&questions[i]); err != nil {
			return err
		}
	}
	q.Questions = questions
	return nil
}

func (m *memQuizzes) FindByID(id uint) (*model.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memQuizzes) FindWithQuestions(id uint) (*model.Quiz, error) {
	q, err := m.FindByID(id)
	if err != nil {
		return nil, err
	}
	q.Questions, _ = m.qs.ListByQuiz(id)
	return q, nil
}

func (m *memQuizzes) List(page, limit int, publishedOnly bool) ([]model.Quiz, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Quiz
	for _, q := range m.quizzes {
		if publishedOnly && !q.IsPublished {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memQuizzes) Update(q *model.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	cp.Questions = nil
	m.quizzes[q.ID] = &cp
	return nil
}

func (m *memQuizzes) Delete(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizzes, id)
	return nil
}

type memQuestions struct {
	mu        sync.Mutex
	nextID    uint
	nextTCID  uint
	questions map[uint]*model.Question
}

func newMemQuestions() *memQuestions {
	return &memQuestions{questions: map[uint]*model.Question{}}
}

func (m *memQuestions) Create(q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	q.ID = m.nextID
	for i := range q.TestCases {
		m.nextTCID++
		q.TestCases[i].ID = m.nextTCID
		q.TestCases[i].QuestionID = q.ID
	}
	cp := *q
	cp.TestCases = append([]model.TestCase(nil), q.TestCases...)
	m.questions[q.ID] = &cp
	return nil
}

func (m *memQuestions) FindByID(id uint) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	cp.TestCases = append([]model.TestCase(nil), q.TestCases...)
	return &cp, nil
}

func (m *memQuestions) ListByQuiz(quizID uint) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Question
	for _, q := range m.questions {
		if q.QuizID == quizID {
			cp := *q
			cp.TestCases = append([]model.TestCase(nil), q.TestCases...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memQuestions) Update(q *model.Question, testCases []model.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	if testCases != nil {
		for i := range testCases {
			m.nextTCID++
			testCases[i].ID = m.nextTCID
			testCases[i].QuestionID = q.ID
		}
		cp.TestCases = append([]model.TestCase(nil), testCases...)
		q.TestCases = testCases
	} else {
		cp.TestCases = m.questions[q.ID].TestCases
	}
	m.questions[q.ID] = &cp
	return nil
}

func (m *memQuestions) Delete(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.questions, id)
	return nil
}

type memAttempts struct {
	mu       sync.Mutex
	nextID   uint
	attempts map[uint]*model.QuizAttempt
}

func newMemAttempts() *memAttempts {
	return &memAttempts{attempts: map[uint]*model.QuizAttempt{}}
}

func (m *memAttempts) Create(a *model.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

func (m *memAttempts) FindByID(id uint) (*model.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAttempts) FindInProgress(quizID, userID uint) (*model.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID && a.Status == model.AttemptInProgress {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memAttempts) Update(a *model.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

func (m *memAttempts) ListByQuiz(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuizAttempt
	for _, a := range m.attempts {
		if a.QuizID == quizID {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

type memSubmissions struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*model.Submission
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{subs: map[uint]*model.Submission{}}
}

func (m *memSubmissions) Create(s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.AttemptID != nil {
		for _, existing := range m.subs {
			if existing.QuestionID == s.QuestionID && existing.UserID == s.UserID && sameAttempt(existing.AttemptID, s.AttemptID) {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *memSubmissions) Update(s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *memSubmissions) UpdateUnlessSubmitted(s *model.Submission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.subs[s.ID]
	if !ok || current.Phase == "submitted" {
		return false, nil
	}
	cp := *s
	m.subs[s.ID] = &cp
	return true, nil
}

func (m *memSubmissions) FindByID(id uint) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func sameAttempt(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memSubmissions) sorted() []model.Submission {
	var out []model.Submission
	for _, s := range m.subs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memSubmissions) FindLatest(userID, questionID uint, attemptID *uint) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Submission
	for _, s := range m.sorted() {
		if s.UserID == userID && s.QuestionID == questionID && sameAttempt(s.AttemptID, attemptID) {
			cp := s
			latest = &cp
		}
	}
	return latest, nil
}

func (m *memSubmissions) ListByUserAndQuestion(userID, questionID uint) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, s := range m.sorted() {
		if s.UserID == userID && s.QuestionID == questionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubmissions) ListByQuestion(questionID uint, page, limit int) ([]model.Submission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, s := range m.sorted() {
		if s.QuestionID == questionID && s.Phase == "submitted" {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memSubmissions) ListByAttempt(attemptID uint) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, s := range m.sorted() {
		if s.AttemptID != nil && *s.AttemptID == attemptID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeArchiver struct {
	mu      sync.Mutex
	reports []interface{}
	err     error
}

func (f *fakeArchiver) ArchiveReport(_ context.Context, questionID uint, report interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.reports = append(f.reports, report)
	return "/uploads/grading-reports/test.json", nil
}
