package repository

import (
	"codequiz_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(a *model.QuizAttempt) error {
	return r.DB.Create(a).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.First(&a, id).Error
	return &a, err
}

// FindInProgress 查找用户在该测验中未提交的尝试
func (r *AttemptRepository) FindInProgress(quizID, userID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Where("quiz_id = ? AND user_id = ? AND status = ?", quizID, userID, model.AttemptInProgress).
		Order("created_at desc").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) Update(a *model.QuizAttempt) error {
	return r.DB.Save(a).Error
}

func (r *AttemptRepository) ListByQuiz(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	var as []model.QuizAttempt
	var total int64
	query := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&as).Error
	return as, total, err
}
