package model

import "time"

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	QuizID         uint       `gorm:"index;type:bigint unsigned" json:"quizId"`
	UserID         uint       `gorm:"index;type:bigint unsigned" json:"userId"`
	Status         string     `gorm:"size:20;default:'in_progress'" json:"status"`
	Score          float64    `gorm:"default:0" json:"score"`
	PointsEarned   float64    `gorm:"default:0" json:"pointsEarned"`
	PointsPossible float64    `gorm:"default:0" json:"pointsPossible"`
	Passed         bool       `gorm:"default:false" json:"passed"`
	NeedsReview    bool       `gorm:"default:false" json:"needsReview"` // 含主观题待人工评分
	StartedAt      time.Time  `json:"startedAt"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
