package util

import "errors"

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizNotPublished    = errors.New("quiz not published or not accessible")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptSubmitted    = errors.New("attempt already submitted")
	ErrAttemptExpired      = errors.New("attempt time limit exceeded")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrNotCodingQuestion   = errors.New("question is not a coding question")
	ErrNoTestCases         = errors.New("question has no test cases")
	ErrSourceTooLarge      = errors.New("source code too large")
	ErrTooManyTestCases    = errors.New("too many test cases")
	ErrInvalidInput        = errors.New("invalid input")
)
