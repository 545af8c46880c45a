package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	cssCommentRe   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssSelectorsRe = regexp.MustCompile(`([^{}]+)\{`)
	idSelectorRe   = regexp.MustCompile(`#[a-zA-Z_-][\w-]*`)
	importantRe    = regexp.MustCompile(`!\s*important`)
	flexRe         = regexp.MustCompile(`(?i)display\s*:\s*(?:inline-)?flex\b`)
	gridRe         = regexp.MustCompile(`(?i)display\s*:\s*(?:inline-)?grid\b`)
	varDefRe       = regexp.MustCompile(`--[a-zA-Z_][\w-]*\s*:`)
	varUseRe       = regexp.MustCompile(`var\(\s*--[a-zA-Z_][\w-]*`)
	keyframesRe    = regexp.MustCompile(`(?i)@(?:-webkit-)?keyframes\s+[\w-]+`)
	transitionRe   = regexp.MustCompile(`(?i)(?:^|[\s;{])transition(?:-[a-z]+)?\s*:`)
	transformRe    = regexp.MustCompile(`(?i)(?:^|[\s;{])transform\s*:`)
	fontFaceRe     = regexp.MustCompile(`(?i)@font-face\s*\{`)
	mediaRe        = regexp.MustCompile(`(?i)@media\b`)
)

var colorFormats = map[string]*regexp.Regexp{
	"hex": regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b`),
	"rgb": regexp.MustCompile(`(?i)\brgba?\(`),
	"hsl": regexp.MustCompile(`(?i)\bhsla?\(`),
}

var legacyPseudoElements = map[string]bool{
	"before": true, "after": true, "first-line": true, "first-letter": true,
}

var cssCatalogue = newCSSCatalogue()

func stripCSSComments(css string) string {
	return cssCommentRe.ReplaceAllString(css, "")
}

func cssSelectorRule(css string, p []string) (bool, string) {
	sel := paramTail(p, 0)
	return strings.Contains(stripCSSComments(css), sel), fmt.Sprintf("Missing selector %q", sel)
}

// cssPropertyRule 属性名以 "property:" 的边界形式出现
func cssPropertyRule(css string, p []string) (bool, string) {
	prop := param(p, 0)
	re := cachedRegexp(`(?i)(?:^|[\s;{])` + regexp.QuoteMeta(prop) + `\s*:`)
	return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Missing CSS property %q", prop)
}

// cssPropertyValueRule 匹配 "property: value"，值后允许 !important
func cssPropertyValueRule(css string, p []string) (bool, string) {
	prop, value := param(p, 0), paramTail(p, 1)
	re := cachedRegexp(`(?is)(?:^|[\s;{])` + regexp.QuoteMeta(prop) + `\s*:\s*` +
		regexp.QuoteMeta(value) + `\s*(?:!\s*important\s*)?(?:;|\}|$)`)
	return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Expected CSS %s: %s", prop, value)
}

func cssSelectors(css string) []string {
	var sels []string
	for _, m := range cssSelectorsRe.FindAllStringSubmatch(stripCSSComments(css), -1) {
		sel := strings.TrimSpace(m[1])
		// @media 内的首条规则会带上声明残留，只取分号之后的部分
		if i := strings.LastIndex(sel, ";"); i >= 0 {
			sel = strings.TrimSpace(sel[i+1:])
		}
		if sel != "" {
			sels = append(sels, sel)
		}
	}
	return sels
}

func newCSSCatalogue() *Catalogue {
	c := NewCatalogue("css")

	c.Register("selector", cssSelectorRule)
	c.Register("property", cssPropertyRule)
	c.Register("property-value", cssPropertyValueRule)
	c.Register("contains", func(css string, p []string) (bool, string) {
		text := paramTail(p, 0)
		return strings.Contains(css, text), fmt.Sprintf("Missing %q", text)
	})
	c.Register("not-contains", func(css string, p []string) (bool, string) {
		text := paramTail(p, 0)
		return !strings.Contains(css, text), fmt.Sprintf("Should not contain %q", text)
	})
	c.Register("media-query", func(css string, p []string) (bool, string) {
		feature := param(p, 0)
		if feature == "" {
			return mediaRe.MatchString(stripCSSComments(css)), "Missing @media query"
		}
		re := cachedRegexp(`(?i)@media[^{]*` + regexp.QuoteMeta(feature))
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Missing @media query with %q", feature)
	})
	c.Register("uses-flexbox", func(css string, _ []string) (bool, string) {
		return flexRe.MatchString(stripCSSComments(css)), "Layout should use flexbox (display: flex)"
	})
	c.Register("uses-grid", func(css string, _ []string) (bool, string) {
		return gridRe.MatchString(stripCSSComments(css)), "Layout should use CSS grid (display: grid)"
	})
	c.Register("uses-variables", func(css string, _ []string) (bool, string) {
		clean := stripCSSComments(css)
		return varDefRe.MatchString(clean) && varUseRe.MatchString(clean), "Should define and use CSS custom properties (--name / var())"
	})
	c.Register("uses-variable", func(css string, p []string) (bool, string) {
		name := strings.TrimPrefix(param(p, 0), "--")
		re := cachedRegexp(`var\(\s*--` + regexp.QuoteMeta(name) + `\b`)
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Should use var(--%s)", name)
	})
	c.Register("pseudo-class", func(css string, p []string) (bool, string) {
		name := strings.TrimLeft(param(p, 0), ":")
		re := cachedRegexp(`(?:^|[^:]):` + regexp.QuoteMeta(name) + `(?:[^a-zA-Z0-9-]|$)`)
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Missing :%s pseudo-class", name)
	})
	c.Register("pseudo-element", func(css string, p []string) (bool, string) {
		name := strings.TrimLeft(param(p, 0), ":")
		expr := `::` + regexp.QuoteMeta(name) + `\b`
		if legacyPseudoElements[name] {
			expr = `::?` + regexp.QuoteMeta(name) + `\b`
		}
		return cachedRegexp(expr).MatchString(stripCSSComments(css)), fmt.Sprintf("Missing ::%s pseudo-element", name)
	})
	c.Register("has-keyframes", func(css string, _ []string) (bool, string) {
		return keyframesRe.MatchString(stripCSSComments(css)), "Missing @keyframes animation"
	})
	c.Register("keyframes", func(css string, p []string) (bool, string) {
		name := param(p, 0)
		re := cachedRegexp(`(?i)@(?:-webkit-)?keyframes\s+` + regexp.QuoteMeta(name) + `\b`)
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Missing @keyframes %s", name)
	})
	c.Register("uses-transition", func(css string, _ []string) (bool, string) {
		return transitionRe.MatchString(stripCSSComments(css)), "Should use a CSS transition"
	})
	c.Register("uses-transform", func(css string, _ []string) (bool, string) {
		return transformRe.MatchString(stripCSSComments(css)), "Should use a CSS transform"
	})
	c.Register("no-important", func(css string, _ []string) (bool, string) {
		return !importantRe.MatchString(stripCSSComments(css)), "Avoid using !important"
	})
	c.Register("balanced-braces", func(css string, _ []string) (bool, string) {
		depth := 0
		for _, r := range stripCSSComments(css) {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth < 0 {
					return false, "Unexpected closing brace '}'"
				}
			}
		}
		return depth == 0, fmt.Sprintf("%d unclosed brace(s)", depth)
	})
	c.Register("rule-count", func(css string, p []string) (bool, string) {
		want, err := strconv.Atoi(param(p, 0))
		if err != nil {
			return false, fmt.Sprintf("Invalid rule count %q", param(p, 0))
		}
		found := strings.Count(stripCSSComments(css), "{")
		return found >= want, fmt.Sprintf("Expected at least %d CSS rules, found %d", want, found)
	})
	c.Register("color-format", func(css string, p []string) (bool, string) {
		format := strings.ToLower(param(p, 0))
		re, ok := colorFormats[format]
		if !ok {
			return false, fmt.Sprintf("Unknown color format %q", format)
		}
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Should use %s color values", format)
	})
	c.Register("unit", func(css string, p []string) (bool, string) {
		unit := param(p, 0)
		re := cachedRegexp(`[0-9]` + regexp.QuoteMeta(unit) + `(?:[^a-zA-Z]|$)`)
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Should use %q units", unit)
	})
	c.Register("no-id-selectors", func(css string, _ []string) (bool, string) {
		for _, sel := range cssSelectors(css) {
			if strings.HasPrefix(sel, "@") {
				continue
			}
			if idSelectorRe.MatchString(sel) {
				return false, fmt.Sprintf("Avoid ID selectors (%s)", sel)
			}
		}
		return true, ""
	})
	c.Register("has-comment", func(css string, _ []string) (bool, string) {
		return cssCommentRe.MatchString(css), "CSS should include comments"
	})
	c.Register("import", func(css string, p []string) (bool, string) {
		frag := paramTail(p, 0)
		re := cachedRegexp(`(?i)@import[^;]*` + regexp.QuoteMeta(frag))
		return re.MatchString(stripCSSComments(css)), fmt.Sprintf("Missing @import of %q", frag)
	})
	c.Register("font-face", func(css string, _ []string) (bool, string) {
		return fontFaceRe.MatchString(stripCSSComments(css)), "Missing @font-face declaration"
	})

	return c
}
