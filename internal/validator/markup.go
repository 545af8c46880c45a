package validator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// selfClosingTags 固定的空元素白名单，标签配对检查以此为准，而非完整的 HTML 语法
var selfClosingTags = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

var (
	tagTokenRe  = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)((?:[^>"']|"[^"]*"|'[^']*')*?)(/?)>`)
	commentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	attrRe      = regexp.MustCompile(`([a-zA-Z_:@][-a-zA-Z0-9_:.@]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+)))?`)
	anyTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe     = regexp.MustCompile(`\s+`)
	styleBodyRe = regexp.MustCompile(`(?is)<style(?:\s[^>]*)?>(.*?)</style\s*>`)

	patternCache sync.Map
)

// cachedRegexp 编译并缓存动态生成的正则
func cachedRegexp(expr string) *regexp.Regexp {
	if re, ok := patternCache.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(expr)
	patternCache.Store(expr, re)
	return re
}

// openTagRe 匹配 <tag ...> 或 <tag/>，大小写不敏感
func openTagRe(tag string) *regexp.Regexp {
	return cachedRegexp(`(?is)<` + regexp.QuoteMeta(tag) + `(?:\s(?:[^>"']|"[^"]*"|'[^']*')*)?/?>`)
}

// elementRe 匹配 <tag ...>内容</tag>，非贪婪
func elementRe(tag string) *regexp.Regexp {
	t := regexp.QuoteMeta(tag)
	return cachedRegexp(`(?is)<` + t + `(?:\s(?:[^>"']|"[^"]*"|'[^']*')*)?>(.*?)</` + t + `\s*>`)
}

func stripComments(src string) string {
	return commentRe.ReplaceAllString(src, "")
}

// openTags 返回所有 <tag ...> 开始标签的原文
func openTags(src, tag string) []string {
	return openTagRe(tag).FindAllString(stripComments(src), -1)
}

func countTags(src, tag string) int {
	return len(openTags(src, tag))
}

func hasTag(src, tag string) bool {
	return countTags(src, tag) > 0
}

// tagAttrs 解析开始标签中的属性，属性名统一小写
func tagAttrs(tagText string) map[string]string {
	attrs := make(map[string]string)
	body := strings.TrimPrefix(tagText, "<")
	body = strings.TrimSuffix(body, ">")
	body = strings.TrimSuffix(body, "/")
	// 跳过标签名
	if i := strings.IndexAny(body, " \t\r\n"); i >= 0 {
		body = body[i:]
	} else {
		return attrs
	}
	for _, m := range attrRe.FindAllStringSubmatch(body, -1) {
		name := strings.ToLower(m[1])
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		if _, exists := attrs[name]; !exists {
			attrs[name] = value
		}
	}
	return attrs
}

func hasAttr(tagText, attr string) bool {
	_, ok := tagAttrs(tagText)[strings.ToLower(attr)]
	return ok
}

func attrValue(tagText, attr string) (string, bool) {
	v, ok := tagAttrs(tagText)[strings.ToLower(attr)]
	return v, ok
}

// elementInners 返回所有 <tag>...</tag> 的内部 HTML
func elementInners(src, tag string) []string {
	var inners []string
	for _, m := range elementRe(tag).FindAllStringSubmatch(stripComments(src), -1) {
		inners = append(inners, m[1])
	}
	return inners
}

// textContent 去掉标签后的可见文本
func textContent(html string) string {
	text := anyTagRe.ReplaceAllString(stripComments(html), " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// styleContent 拼接所有 <style> 块的内容
func styleContent(src string) string {
	var b strings.Builder
	for _, m := range styleBodyRe.FindAllStringSubmatch(src, -1) {
		b.WriteString(m[1])
		b.WriteString("\n")
	}
	return b.String()
}

type tagToken struct {
	name      string
	raw       string
	closing   bool
	selfClose bool
	start     int
	end       int
}

// tokenizeTags 按出现顺序切分所有标签，注释会被先行剔除
func tokenizeTags(src string) []tagToken {
	clean := stripComments(src)
	var tokens []tagToken
	for _, m := range tagTokenRe.FindAllStringSubmatchIndex(clean, -1) {
		name := strings.ToLower(clean[m[4]:m[5]])
		tokens = append(tokens, tagToken{
			name:      name,
			raw:       clean[m[0]:m[1]],
			closing:   m[3] > m[2],
			selfClose: m[9] > m[8],
			start:     m[0],
			end:       m[1],
		})
	}
	return tokens
}

// CheckTagBalance 基于栈的一遍扫描标签配对检查。
// 非空元素的开始标签入栈，结束标签出栈比较，扫描结束后栈中剩余的即为未闭合标签。
func CheckTagBalance(src string) []string {
	var problems []string
	var stack []string
	for _, tok := range tokenizeTags(src) {
		if tok.closing {
			if len(stack) == 0 {
				problems = append(problems, fmt.Sprintf("Unexpected closing tag </%s>", tok.name))
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top != tok.name {
				problems = append(problems, fmt.Sprintf("Mismatched closing tag: expected </%s> before </%s>", top, tok.name))
			}
			continue
		}
		if tok.selfClose || selfClosingTags[tok.name] {
			continue
		}
		stack = append(stack, tok.name)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		problems = append(problems, fmt.Sprintf("Unclosed tag <%s>", stack[i]))
	}
	return problems
}

// node 宽松解析得到的元素树，仅用于嵌套类规则
type node struct {
	name     string
	raw      string
	parent   *node
	children []*node
	text     strings.Builder
}

func (n *node) depth() int {
	deepest := 0
	for _, c := range n.children {
		if d := c.depth(); d > deepest {
			deepest = d
		}
	}
	if n.name == "" {
		return deepest
	}
	return deepest + 1
}

func (n *node) walk(fn func(*node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}

func (n *node) hasAncestor(names ...string) bool {
	for p := n.parent; p != nil; p = p.parent {
		for _, name := range names {
			if p.name == name {
				return true
			}
		}
	}
	return false
}

func (n *node) hasDescendant(names ...string) bool {
	found := false
	n.walk(func(c *node) {
		for _, name := range names {
			if c.name == name {
				found = true
			}
		}
	})
	return found
}

// fullText 节点及其后代的文本
func (n *node) fullText() string {
	var b strings.Builder
	b.WriteString(n.text.String())
	for _, c := range n.children {
		b.WriteString(" ")
		b.WriteString(c.fullText())
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}

// parseTree 容错建树：结束标签会弹出到最近的同名节点，找不到同名节点则忽略
func parseTree(src string) *node {
	clean := stripComments(src)
	root := &node{}
	cur := root
	pos := 0
	for _, tok := range tokenizeTags(clean) {
		if tok.start > pos {
			cur.text.WriteString(clean[pos:tok.start])
		}
		pos = tok.end
		if tok.closing {
			for n := cur; n != root; n = n.parent {
				if n.name == tok.name {
					cur = n.parent
					break
				}
			}
			continue
		}
		child := &node{name: tok.name, raw: tok.raw, parent: cur}
		cur.children = append(cur.children, child)
		if !tok.selfClose && !selfClosingTags[tok.name] {
			cur = child
		}
	}
	if pos < len(clean) {
		cur.text.WriteString(clean[pos:])
	}
	return root
}

// findNodes 收集指定名称的所有节点
func findNodes(root *node, name string) []*node {
	var nodes []*node
	root.walk(func(n *node) {
		if n.name == name {
			nodes = append(nodes, n)
		}
	})
	return nodes
}
