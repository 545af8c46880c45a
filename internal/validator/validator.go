package validator

import "strings"

const (
	LanguageHTML = "html"
	LanguageCSS  = "css"
)

// IsMarkupLanguage 是否走规则校验而非代码执行
func IsMarkupLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LanguageHTML, LanguageCSS:
		return true
	}
	return false
}

// ValidateHTML 校验 HTML 源码
func ValidateHTML(src, rules string) Result {
	return htmlCatalogue.Evaluate(src, rules).Result()
}

// ValidateCSS 校验 CSS 源码
func ValidateCSS(src, rules string) Result {
	return cssCatalogue.Evaluate(src, rules).Result()
}

// CatalogueFor 根据语言选择规则表，非 html/css 返回 nil
func CatalogueFor(lang string) *Catalogue {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LanguageHTML:
		return htmlCatalogue
	case LanguageCSS:
		return cssCatalogue
	}
	return nil
}

// Evaluate 按语言评估并返回完整报告
func Evaluate(lang, src, rules string) (Report, bool) {
	c := CatalogueFor(lang)
	if c == nil {
		return Report{}, false
	}
	return c.Evaluate(src, rules), true
}

// Lint 找出规则串中无法识别的规则，供出题时提示
func Lint(lang, rules string) []string {
	c := CatalogueFor(lang)
	if c == nil {
		return nil
	}
	var unknown []string
	for _, r := range c.Parse(rules) {
		if !r.Known {
			unknown = append(unknown, r.Raw)
		}
	}
	return unknown
}
