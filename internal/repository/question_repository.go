package repository

import (
	"codequiz_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// Create 同时写入测试用例
func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("TestCases", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc, id asc")
	}).First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) ListByQuiz(quizID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).
		Preload("TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		Order("`order` asc, id asc").Find(&qs).Error
	return qs, err
}

// Update 更新题目；testCases 不为 nil 时整体替换测试用例
func (r *QuestionRepository) Update(q *model.Question, testCases []model.TestCase) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TestCases").Save(q).Error; err != nil {
			return err
		}
		if testCases == nil {
			return nil
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&model.TestCase{}).Error; err != nil {
			return err
		}
		for i := range testCases {
			testCases[i].ID = 0
			testCases[i].QuestionID = q.ID
		}
		if len(testCases) > 0 {
			if err := tx.Create(&testCases).Error; err != nil {
				return err
			}
		}
		q.TestCases = testCases
		return nil
	})
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.TestCase{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}
