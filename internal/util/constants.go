package util

const (
	DateFormat = "2006-01-02"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 评测报告归档
const (
	ReportPrefix      = "grading-reports"
	ReportContentType = "application/json"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)
