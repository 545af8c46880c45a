package model

import (
	"encoding/json"
	"time"
)

// Submission 单题作答记录，编程题保存评测阶段与结果
// swagger:model Submission
type Submission struct {
	BaseModel
	// 同一次尝试内每题一条记录；练习模式 attempt_id 为 NULL，不受唯一约束
	AttemptID    *uint           `gorm:"uniqueIndex:idx_attempt_question_user;type:bigint unsigned" json:"attemptId,omitempty"`
	QuestionID   uint            `gorm:"index;uniqueIndex:idx_attempt_question_user;type:bigint unsigned" json:"questionId"`
	UserID       uint            `gorm:"index;uniqueIndex:idx_attempt_question_user;type:bigint unsigned" json:"userId"`
	Language     string          `gorm:"size:30" json:"language,omitempty"`
	Code         string          `gorm:"type:mediumtext" json:"code,omitempty"`
	Answer       json.RawMessage `gorm:"type:json" json:"answer,omitempty"`
	Phase        string          `gorm:"size:20;default:'unstarted'" json:"phase"`
	Score        float64         `gorm:"default:0" json:"score"`
	PointsEarned float64         `gorm:"default:0" json:"pointsEarned"`
	Passed       int             `gorm:"default:0" json:"passed"`
	Total        int             `gorm:"default:0" json:"total"`
	ManualReview bool            `gorm:"default:false" json:"manualReview"`
	Results      json.RawMessage `gorm:"type:json" json:"results,omitempty"`
	ReportURL    string          `gorm:"size:512" json:"reportUrl,omitempty"`
	SubmittedAt  *time.Time      `json:"submittedAt,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}
