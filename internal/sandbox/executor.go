// Package sandbox 提供提交代码的隔离执行边界。
//
// 用户代码绝不在服务进程自身的解释器状态中执行：JavaScript 在每次独立创建的
// goja 隔离运行时中执行（无宿主对象、无文件与网络访问、带超时中断），
// 其余语言交由 Judge0 远程沙箱执行。
package sandbox

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTimeout             = errors.New("execution timed out")
	ErrSourceTooLarge      = errors.New("source code too large")
)

// Program 一次待执行的程序
type Program struct {
	Language string
	Source   string
	// InputExpr 测试用例的输入表达式；JS 中作为返回值表达式，远程沙箱中作为 stdin
	InputExpr string
}

// Output 执行结果。用户代码抛出的异常记录在 Err 中，不作为 Go error 返回
type Output struct {
	Value    string        `json:"value"`
	Err      string        `json:"err,omitempty"`
	Logs     []string      `json:"logs,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed 用户代码是否抛出了异常
func (o Output) Failed() bool {
	return o.Err != ""
}

// Executor 执行器。返回的 error 只表示基础设施层面的问题（超时、网络、语言不支持等）
type Executor interface {
	Supports(language string) bool
	Execute(ctx context.Context, p Program) (Output, error)
}

// Dispatcher 按顺序选择第一个支持该语言的执行器
type Dispatcher struct {
	executors []Executor
}

func NewDispatcher(executors ...Executor) *Dispatcher {
	var list []Executor
	for _, e := range executors {
		if e != nil {
			list = append(list, e)
		}
	}
	return &Dispatcher{executors: list}
}

func (d *Dispatcher) Supports(language string) bool {
	return d.pick(language) != nil
}

func (d *Dispatcher) Execute(ctx context.Context, p Program) (Output, error) {
	e := d.pick(p.Language)
	if e == nil {
		return Output{}, ErrUnsupportedLanguage
	}
	return e.Execute(ctx, p)
}

func (d *Dispatcher) pick(language string) Executor {
	for _, e := range d.executors {
		if e.Supports(language) {
			return e
		}
	}
	return nil
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
