package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	CourseID     uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	TimeLimit    int        `gorm:"default:0" json:"timeLimit"` // 分钟，0 表示不限时
	PassingScore float64    `gorm:"default:60" json:"passingScore"`
	IsPublished  bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Proctored    bool       `gorm:"default:false" json:"proctored"`
	CreatorID    uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Questions    []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
