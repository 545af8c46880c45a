package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codequiz_backend/internal/config"
)

// Judge0 语言编号
var judge0Languages = map[string]int{
	"c":          50,
	"cpp":        54,
	"c++":        54,
	"csharp":     51,
	"go":         60,
	"java":       62,
	"php":        68,
	"python":     71,
	"ruby":       72,
	"rust":       73,
	"typescript": 74,
}

// 响应体上限，stdout 过大的程序按基础设施错误处理
const maxJudge0ResponseBytes = 1 << 20

// Judge0 状态码
const (
	judge0Accepted          = 3
	judge0WrongAnswer       = 4
	judge0TimeLimitExceeded = 5
	judge0CompilationError  = 6
)

type judge0Request struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type judge0Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judge0Response struct {
	Stdout        *string      `json:"stdout"`
	Stderr        *string      `json:"stderr"`
	CompileOutput *string      `json:"compile_output"`
	Message       *string      `json:"message"`
	Time          string       `json:"time"`
	Status        judge0Status `json:"status"`
}

// Judge0Executor 通过 Judge0 远程沙箱执行非 JS 语言
type Judge0Executor struct {
	config config.Judge0Config
	client *http.Client
}

func NewJudge0Executor(cfg config.Judge0Config) *Judge0Executor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Judge0Executor{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *Judge0Executor) Supports(language string) bool {
	if !e.config.Enabled || e.config.URL == "" {
		return false
	}
	_, ok := judge0Languages[normalizeLanguage(language)]
	return ok
}

func (e *Judge0Executor) Execute(ctx context.Context, p Program) (Output, error) {
	langID, ok := judge0Languages[normalizeLanguage(p.Language)]
	if !ok {
		return Output{}, ErrUnsupportedLanguage
	}

	jsonData, err := json.Marshal(judge0Request{
		SourceCode: p.Source,
		LanguageID: langID,
		Stdin:      p.InputExpr,
	})
	if err != nil {
		return Output{}, err
	}

	url := strings.TrimRight(e.config.URL, "/") + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Output{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", e.config.APIKey)
	}
	if e.config.Host != "" {
		req.Header.Set("X-RapidAPI-Host", e.config.Host)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Output{}, ErrTimeout
		}
		return Output{}, fmt.Errorf("judge0 request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJudge0ResponseBytes+1))
	if err != nil {
		return Output{}, fmt.Errorf("judge0 read response: %w", err)
	}
	if len(body) > maxJudge0ResponseBytes {
		return Output{}, fmt.Errorf("judge0 response exceeds %d bytes", maxJudge0ResponseBytes)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Output{}, fmt.Errorf("judge0 error (status %d): %s", resp.StatusCode, string(body))
	}

	var result judge0Response
	if err := json.Unmarshal(body, &result); err != nil {
		return Output{}, fmt.Errorf("judge0 returned invalid response: %w", err)
	}

	out := Output{Duration: time.Since(start)}
	switch id := result.Status.ID; {
	case id == judge0Accepted || id == judge0WrongAnswer:
		out.Value = deref(result.Stdout)
	case id == judge0TimeLimitExceeded:
		return out, ErrTimeout
	case id == judge0CompilationError:
		out.Err = firstNonEmpty(deref(result.CompileOutput), result.Status.Description)
	case id > judge0CompilationError && id <= 12:
		out.Err = firstNonEmpty(deref(result.Stderr), deref(result.Message), result.Status.Description)
	default:
		// 排队中或内部错误
		return out, fmt.Errorf("judge0 status %d: %s", id, result.Status.Description)
	}
	if stderr := deref(result.Stderr); stderr != "" && out.Err == "" {
		out.Logs = append(out.Logs, stderr)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
