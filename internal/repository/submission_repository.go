package repository

import (
	"codequiz_backend/internal/model"

	"gorm.io/gorm"
)

const submittedPhase = "submitted"

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(s *model.Submission) error {
	return r.DB.Create(s).Error
}

func (r *SubmissionRepository) Update(s *model.Submission) error {
	return r.DB.Save(s).Error
}

func (r *SubmissionRepository) UpdateUnlessSubmitted(s *model.Submission) (bool, error) {
	res := r.DB.Model(s).
		Where("phase <> ?", submittedPhase).
		Select("*").Omit("id", "created_at").
		Updates(s)
	return res.RowsAffected > 0, res.Error
}

func (r *SubmissionRepository) FindByID(id uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.First(&s, id).Error
	return &s, err
}

func scopeAttempt(query *gorm.DB, attemptID *uint) *gorm.DB {
	if attemptID == nil {
		return query.Where("attempt_id IS NULL")
	}
	return query.Where("attempt_id = ?", *attemptID)
}

// FindLatest 用户在某题（某次尝试内）的最新作答记录，不存在时返回 nil, nil
func (r *SubmissionRepository) FindLatest(userID, questionID uint, attemptID *uint) (*model.Submission, error) {
	var subs []model.Submission
	query := r.DB.Where("user_id = ? AND question_id = ?", userID, questionID)
	err := scopeAttempt(query, attemptID).Order("id desc").Limit(1).Find(&subs).Error
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return &subs[0], nil
}

func (r *SubmissionRepository) ListByUserAndQuestion(userID, questionID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("created_at desc").Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) ListByQuestion(questionID uint, page, limit int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64
	query := r.DB.Model(&model.Submission{}).Where("question_id = ? AND phase = ?", questionID, submittedPhase)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

func (r *SubmissionRepository) ListByAttempt(attemptID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("attempt_id = ?", attemptID).Order("id asc").Find(&subs).Error
	return subs, err
}
