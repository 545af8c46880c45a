package model

import "encoding/json"

// swagger:model Question
type Question struct {
	BaseModel
	QuizID       uint            `gorm:"index;type:bigint unsigned" json:"quizId"`
	QuestionType string          `gorm:"size:50;not null" json:"questionType"`
	Prompt       string          `gorm:"type:text;not null" json:"prompt"`
	Points       float64         `gorm:"default:0" json:"points"`
	TimeLimit    int             `gorm:"default:0" json:"timeLimit"`         // 秒
	Payload      json.RawMessage `gorm:"type:json" json:"payload,omitempty"` // 题型相关内容：选项、拖放区、配对等
	AnswerKey    json.RawMessage `gorm:"type:json" json:"answerKey,omitempty"`
	Language     string          `gorm:"size:30" json:"language,omitempty"` // 编程题语言
	StarterCode  string          `gorm:"type:text" json:"starterCode,omitempty"`
	Explanation  string          `gorm:"type:text" json:"explanation,omitempty"`
	Order        int             `gorm:"default:0" json:"order"`
	TestCases    []TestCase      `gorm:"foreignKey:QuestionID" json:"testCases,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// TestCase 编程题测试用例；HTML/CSS 题的 Input 为规则串
// swagger:model TestCase
type TestCase struct {
	BaseModel
	QuestionID     uint    `gorm:"index;type:bigint unsigned" json:"questionId"`
	Input          string  `gorm:"type:text" json:"input"`
	ExpectedOutput string  `gorm:"type:text" json:"expectedOutput"`
	Hidden         bool    `gorm:"default:false" json:"hidden"`
	Points         float64 `gorm:"default:1" json:"points"`
	Order          int     `gorm:"default:0" json:"order"`
}

func (TestCase) TableName() string {
	return "question_test_cases"
}
