package database

import (
	"codequiz_backend/internal/config"
	"codequiz_backend/internal/model"
	applog "codequiz_backend/pkg/logger"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// 唯一键冲突统一为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate 建表并写入示例测验
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.TestCase{},
		&model.QuizAttempt{},
		&model.Submission{},
	)
	if err != nil {
		return err
	}
	applog.Log.Info("Database migration completed")

	return seedDemoQuiz(db)
}

// seedDemoQuiz 空库时插入一份示例测验
func seedDemoQuiz(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Quiz{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	choices, _ := json.Marshal([]string{"<a>", "<link>", "<href>", "<url>"})
	quiz := &model.Quiz{
		Title:        "Web 基础示例测验",
		Description:  "HTML 结构、CSS 选择器与 JavaScript 函数",
		TimeLimit:    30,
		PassingScore: 60,
		IsPublished:  true,
		Questions: []model.Question{
			{
				QuestionType: "multiple_choice",
				Prompt:       "哪个标签用于创建超链接？",
				Points:       2,
				Payload:      choices,
				AnswerKey:    json.RawMessage(`"<a>"`),
				Order:        1,
			},
			{
				QuestionType: "coding",
				Prompt:       "编写一个包含标题、导航和图片的页面，图片需要 alt 属性。",
				Points:       5,
				Language:     "html",
				StarterCode:  "<!DOCTYPE html>\n<html>\n<head><title></title></head>\n<body>\n</body>\n</html>",
				Order:        2,
				TestCases: []model.TestCase{
					{Input: "has-doctype;has-title;contains:h1", Points: 2, Order: 1},
					{Input: "has-nav;img-alt;proper-closing-tags", Points: 3, Order: 2, Hidden: true},
				},
			},
			{
				QuestionType: "coding",
				Prompt:       "实现 add(a, b)，返回两数之和。",
				Points:       3,
				Language:     "javascript",
				StarterCode:  "function add(a, b) {\n  \n}",
				Order:        3,
				TestCases: []model.TestCase{
					{Input: "add(1, 2)", ExpectedOutput: "3", Points: 1, Order: 1},
					{Input: "add(-1, 1)", ExpectedOutput: "0", Points: 1, Order: 2},
					{Input: "add(0.5, 0.25)", ExpectedOutput: "0.75", Points: 1, Order: 3, Hidden: true},
				},
			},
		},
	}
	return db.Create(quiz).Error
}
