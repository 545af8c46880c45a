// Package validator 实现编程题中 HTML/CSS 题型的规则校验。
//
// 规则以 token 形式内联在测试用例的 input 中，多个 token 用分号分隔，
// 例如 "contains:div;count:li:2;has-title"。每条规则互相独立地执行，
// 所有失败信息都会被收集，而不是遇到第一条失败就返回。
package validator

import (
	"sort"
	"strings"
)

const (
	ruleSeparator  = ";"
	paramSeparator = ":"

	// AllPassedMessage 全部规则通过时的输出
	AllPassedMessage = "All validation checks passed!"
)

// Result 单次校验的结果
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Rule 解析后的单条规则
type Rule struct {
	Raw    string   `json:"raw"`
	Kind   string   `json:"kind"`
	Params []string `json:"params,omitempty"`
	Known  bool     `json:"known"`
}

// RuleFunc 返回规则是否满足，以及不满足时的可读描述
type RuleFunc func(src string, params []string) (bool, string)

// Failure 单条规则的失败记录
type Failure struct {
	Rule    string `json:"rule"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report 对规则列表的完整评估结果
type Report struct {
	Checked  int       `json:"checked"`
	Failures []Failure `json:"failures,omitempty"`
	// Unknown 未识别的规则，按通过处理
	Unknown []string `json:"unknown,omitempty"`
}

// Passed 全部规则通过（未识别的规则不影响结果）
func (r Report) Passed() bool {
	return len(r.Failures) == 0
}

// Messages 失败描述列表
func (r Report) Messages() []string {
	msgs := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// Result 转换为 {success, output, error} 结构
func (r Report) Result() Result {
	if r.Passed() {
		return Result{Success: true, Output: AllPassedMessage}
	}
	joined := strings.Join(r.Messages(), "\n")
	return Result{Success: false, Output: joined, Error: joined}
}

// Catalogue 规则前缀到校验函数的映射表
type Catalogue struct {
	name  string
	rules map[string]RuleFunc
}

func NewCatalogue(name string) *Catalogue {
	return &Catalogue{name: name, rules: make(map[string]RuleFunc)}
}

func (c *Catalogue) Name() string {
	return c.name
}

// Register 注册规则，同名规则后注册的覆盖先注册的
func (c *Catalogue) Register(kind string, fn RuleFunc) {
	c.rules[kind] = fn
}

// Kinds 已注册的规则名（排序后）
func (c *Catalogue) Kinds() []string {
	kinds := make([]string, 0, len(c.rules))
	for k := range c.rules {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Parse 将分号分隔的规则串解析为规则列表。
// 规则名是第一个冒号之前的部分，其余部分按冒号切分为参数。
func (c *Catalogue) Parse(list string) []Rule {
	var rules []Rule
	for _, token := range strings.Split(list, ruleSeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		kind, rest, hasParams := strings.Cut(token, paramSeparator)
		kind = strings.TrimSpace(kind)
		rule := Rule{Raw: token, Kind: kind}
		if hasParams {
			rule.Params = strings.Split(rest, paramSeparator)
		}
		_, rule.Known = c.rules[kind]
		rules = append(rules, rule)
	}
	return rules
}

// Evaluate 对源码逐条执行规则，不做短路
func (c *Catalogue) Evaluate(src, list string) Report {
	var report Report
	for _, rule := range c.Parse(list) {
		if !rule.Known {
			report.Unknown = append(report.Unknown, rule.Raw)
			continue
		}
		report.Checked++
		ok, msg := c.rules[rule.Kind](src, rule.Params)
		if !ok {
			report.Failures = append(report.Failures, Failure{Rule: rule.Raw, Kind: rule.Kind, Message: msg})
		}
	}
	return report
}

// param 取第 i 个参数，缺失时返回空串
func param(params []string, i int) string {
	if i < len(params) {
		return strings.TrimSpace(params[i])
	}
	return ""
}

// paramTail 第 i 个参数及其后所有参数用冒号拼回，用于值中本身含冒号的情况（如 URL）
func paramTail(params []string, i int) string {
	if i >= len(params) {
		return ""
	}
	return strings.TrimSpace(strings.Join(params[i:], paramSeparator))
}
