package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const (
	defaultJSTimeout   = 2 * time.Second
	defaultMaxStack    = 1024
	maxCapturedLogs    = 100
	defaultMaxSourceSz = 64 * 1024
)

// JSExecutor 每次执行都新建一个 goja 运行时
type JSExecutor struct {
	mu            sync.RWMutex
	timeout       time.Duration
	maxCallStack  int
	maxSourceSize int
}

func NewJSExecutor(timeout time.Duration, maxCallStack, maxSourceSize int) *JSExecutor {
	e := &JSExecutor{}
	e.Configure(timeout, maxCallStack, maxSourceSize)
	return e
}

// Configure 更新执行限制，配置热更新时调用
func (e *JSExecutor) Configure(timeout time.Duration, maxCallStack, maxSourceSize int) {
	if timeout <= 0 {
		timeout = defaultJSTimeout
	}
	if maxCallStack <= 0 {
		maxCallStack = defaultMaxStack
	}
	if maxSourceSize <= 0 {
		maxSourceSize = defaultMaxSourceSz
	}
	e.mu.Lock()
	e.timeout = timeout
	e.maxCallStack = maxCallStack
	e.maxSourceSize = maxSourceSize
	e.mu.Unlock()
}

func (e *JSExecutor) limits() (time.Duration, int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timeout, e.maxCallStack, e.maxSourceSize
}

func (e *JSExecutor) Supports(language string) bool {
	switch normalizeLanguage(language) {
	case "javascript", "js":
		return true
	}
	return false
}

// WrapProgram 将提交代码与测试输入拼成立即执行函数：代码在前，最后返回 String(输入表达式)
func WrapProgram(source, inputExpr string) string {
	return "(function(){\n" + source + "\nreturn String(" + inputExpr + ");\n})()"
}

func (e *JSExecutor) Execute(ctx context.Context, p Program) (Output, error) {
	timeout, maxStack, maxSize := e.limits()
	if len(p.Source)+len(p.InputExpr) > maxSize {
		return Output{}, ErrSourceTooLarge
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(maxStack)

	var logs []string
	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		if len(logs) >= maxCapturedLogs {
			return goja.Undefined()
		}
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		logs = append(logs, strings.Join(parts, " "))
		return goja.Undefined()
	})
	vm.Set("console", console)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ErrTimeout)
		case <-done:
		}
	}()

	start := time.Now()
	value, err := vm.RunString(WrapProgram(p.Source, p.InputExpr))
	out := Output{Logs: logs, Duration: time.Since(start)}

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if ctx.Err() == context.DeadlineExceeded {
				return out, ErrTimeout
			}
			return out, ctx.Err()
		}
		out.Err = errorMessage(err)
		return out, nil
	}

	out.Value = value.String()
	return out, nil
}

// errorMessage 提取抛出值的可读信息：Error 对象取 message，其余取字符串形式
func errorMessage(err error) string {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return err.Error()
	}
	thrown := ex.Value()
	if thrown == nil || goja.IsUndefined(thrown) || goja.IsNull(thrown) {
		return ex.Error()
	}
	if obj, ok := thrown.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
		return obj.String()
	}
	return fmt.Sprint(thrown.Export())
}
