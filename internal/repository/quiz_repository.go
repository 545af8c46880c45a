package repository

import (
	"codequiz_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.First(&q, id).Error
	return &q, err
}

// FindWithQuestions 预加载题目及测试用例，按 order 排序
func (r *QuizRepository) FindWithQuestions(id uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		Preload("Questions.TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		First(&q, id).Error
	return &q, err
}

func (r *QuizRepository) List(page, limit int, publishedOnly bool) ([]model.Quiz, int64, error) {
	var qs []model.Quiz
	var total int64
	query := r.DB.Model(&model.Quiz{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&qs).Error
	return qs, total, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Omit("Questions").Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.Question{}).Where("quiz_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("question_id IN ?", ids).Delete(&model.TestCase{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}
