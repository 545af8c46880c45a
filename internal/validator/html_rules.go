package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	doctypeRe       = regexp.MustCompile(`(?is)^\s*(?:<!--.*?-->\s*)*<!doctype\s+html`)
	headingRe       = regexp.MustCompile(`(?i)<h([1-6])(?:\s[^>]*)?>`)
	inlineStyleRe   = regexp.MustCompile(`(?i)<[a-z][^>]*\sstyle\s*=`)
	inlineHandlerRe = regexp.MustCompile(`(?i)<[a-z][^>]*\son[a-z]+\s*=`)
	unquotedAttrRe  = regexp.MustCompile(`(?i)<[a-z][^>]*\s[a-z-]+=[^"'\s>]`)
	upperTagRe      = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)`)
	brRunRe         = regexp.MustCompile(`(?i)(?:<br\s*/?>\s*){3,}`)
)

var deprecatedTags = []string{
	"acronym", "applet", "basefont", "big", "blink", "center", "dir", "font",
	"frame", "frameset", "isindex", "marquee", "noframes", "strike", "tt",
}

var deprecatedAttrs = []string{"align", "bgcolor", "valign", "hspace", "vspace", "nowrap", "alink", "vlink"}

var semanticTags = []string{"header", "nav", "main", "footer", "article", "section", "aside"}

// 不需要 label 的 input 类型
var unlabeledInputTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true, "image": true,
}

var genericLinkTexts = map[string]bool{
	"click here": true, "here": true, "read more": true, "more": true, "link": true,
}

var blockTags = []string{
	"div", "p", "ul", "ol", "table", "section", "article", "header", "footer",
	"nav", "aside", "form", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre",
}

var htmlCatalogue = newHTMLCatalogue()

func newHTMLCatalogue() *Catalogue {
	c := NewCatalogue("html")

	// 标签存在性与数量
	c.Register("contains", func(src string, p []string) (bool, string) {
		tag := param(p, 0)
		return hasTag(src, tag), fmt.Sprintf("Missing <%s> tag", tag)
	})
	c.Register("not-contains", func(src string, p []string) (bool, string) {
		tag := param(p, 0)
		return !hasTag(src, tag), fmt.Sprintf("Should not contain <%s> tag", tag)
	})
	c.Register("count", countRule("at least", func(found, want int) bool { return found >= want }))
	c.Register("exact-count", countRule("exactly", func(found, want int) bool { return found == want }))
	c.Register("max-count", countRule("at most", func(found, want int) bool { return found <= want }))

	// 属性
	c.Register("has-attribute", func(src string, p []string) (bool, string) {
		tag, attr := param(p, 0), param(p, 1)
		tags := openTags(src, tag)
		if len(tags) == 0 {
			return false, fmt.Sprintf("Missing <%s> tag", tag)
		}
		for _, t := range tags {
			if hasAttr(t, attr) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("<%s> tag missing %q attribute", tag, attr)
	})
	c.Register("attribute-value", func(src string, p []string) (bool, string) {
		tag, attr, want := param(p, 0), param(p, 1), paramTail(p, 2)
		for _, t := range openTags(src, tag) {
			if v, ok := attrValue(t, attr); ok && strings.EqualFold(strings.TrimSpace(v), want) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("No <%s> with %s=%q", tag, attr, want)
	})
	c.Register("no-attribute", func(src string, p []string) (bool, string) {
		tag, attr := param(p, 0), param(p, 1)
		for _, t := range openTags(src, tag) {
			if hasAttr(t, attr) {
				return false, fmt.Sprintf("<%s> should not have %q attribute", tag, attr)
			}
		}
		return true, ""
	})
	c.Register("has-class", func(src string, p []string) (bool, string) {
		class := param(p, 0)
		for _, n := range allElements(src) {
			if v, ok := attrValue(n.raw, "class"); ok {
				for _, cls := range strings.Fields(v) {
					if cls == class {
						return true, ""
					}
				}
			}
		}
		return false, fmt.Sprintf("No element with class %q", class)
	})
	c.Register("has-id", func(src string, p []string) (bool, string) {
		id := param(p, 0)
		for _, n := range allElements(src) {
			if v, ok := attrValue(n.raw, "id"); ok && strings.TrimSpace(v) == id {
				return true, ""
			}
		}
		return false, fmt.Sprintf("No element with id %q", id)
	})
	c.Register("unique-ids", func(src string, _ []string) (bool, string) {
		seen := make(map[string]bool)
		var dups []string
		for _, n := range allElements(src) {
			id, ok := attrValue(n.raw, "id")
			if !ok || id == "" {
				continue
			}
			if seen[id] {
				dups = append(dups, id)
			}
			seen[id] = true
		}
		return len(dups) == 0, fmt.Sprintf("Duplicate id values: %s", strings.Join(dups, ", "))
	})
	c.Register("contains-text", func(src string, p []string) (bool, string) {
		text := paramTail(p, 0)
		return containsFold(textContent(src), text), fmt.Sprintf("Missing text %q", text)
	})
	c.Register("tag-contains-text", func(src string, p []string) (bool, string) {
		tag, text := param(p, 0), paramTail(p, 1)
		for _, inner := range elementInners(src, tag) {
			if containsFold(textContent(inner), text) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("<%s> should contain text %q", tag, text)
	})

	// 嵌套结构
	c.Register("nested", func(src string, p []string) (bool, string) {
		parent, child := strings.ToLower(param(p, 0)), strings.ToLower(param(p, 1))
		for _, n := range findNodes(parseTree(src), child) {
			if n.hasAncestor(parent) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("<%s> should be nested inside <%s>", child, parent)
	})
	c.Register("direct-child", func(src string, p []string) (bool, string) {
		parent, child := strings.ToLower(param(p, 0)), strings.ToLower(param(p, 1))
		for _, n := range findNodes(parseTree(src), child) {
			if n.parent != nil && n.parent.name == parent {
				return true, ""
			}
		}
		return false, fmt.Sprintf("<%s> should be a direct child of <%s>", child, parent)
	})
	c.Register("max-depth", func(src string, p []string) (bool, string) {
		limit, err := strconv.Atoi(param(p, 0))
		if err != nil {
			return false, fmt.Sprintf("Invalid depth limit %q", param(p, 0))
		}
		depth := parseTree(src).depth()
		return depth <= limit, fmt.Sprintf("Nesting depth %d exceeds maximum of %d", depth, limit)
	})
	c.Register("list-structure", func(src string, _ []string) (bool, string) {
		root := parseTree(src)
		lists := append(findNodes(root, "ul"), findNodes(root, "ol")...)
		if len(lists) == 0 {
			return false, "Missing <ul> or <ol> list"
		}
		for _, l := range lists {
			for _, child := range l.children {
				if child.name != "li" && child.name != "script" && child.name != "template" {
					return false, fmt.Sprintf("<%s> may only contain <li> children, found <%s>", l.name, child.name)
				}
			}
		}
		for _, li := range findNodes(root, "li") {
			if li.parent == nil || (li.parent.name != "ul" && li.parent.name != "ol" && li.parent.name != "menu") {
				return false, "<li> must be inside <ul> or <ol>"
			}
		}
		return true, ""
	})
	c.Register("table-structure", func(src string, _ []string) (bool, string) {
		root := parseTree(src)
		tables := findNodes(root, "table")
		if len(tables) == 0 {
			return false, "Missing <table> tag"
		}
		for _, t := range tables {
			if !t.hasDescendant("tr") {
				return false, "<table> must contain <tr> rows"
			}
		}
		for _, tr := range findNodes(root, "tr") {
			if !tr.hasDescendant("td", "th") {
				return false, "<tr> must contain <td> or <th> cells"
			}
		}
		return true, ""
	})
	c.Register("form-structure", func(src string, _ []string) (bool, string) {
		root := parseTree(src)
		forms := findNodes(root, "form")
		if len(forms) == 0 {
			return false, "Missing <form> tag"
		}
		for _, f := range forms {
			if !f.hasDescendant("input", "select", "textarea") {
				return false, "<form> must contain at least one input field"
			}
			if !hasSubmitControl(f) {
				return false, "<form> must contain a submit button"
			}
		}
		return true, ""
	})

	// 文档结构
	c.Register("has-doctype", func(src string, _ []string) (bool, string) {
		return doctypeRe.MatchString(src), "Missing <!DOCTYPE html> declaration"
	})
	for _, tag := range []string{"html", "head", "body"} {
		tag := tag
		c.Register("has-"+tag, func(src string, _ []string) (bool, string) {
			return hasTag(src, tag), fmt.Sprintf("Missing <%s> tag", tag)
		})
	}
	c.Register("has-title", func(src string, _ []string) (bool, string) {
		for _, inner := range elementInners(src, "title") {
			if strings.TrimSpace(textContent(inner)) != "" {
				return true, ""
			}
		}
		return false, "Missing or empty <title> tag"
	})
	c.Register("has-charset", func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "meta") {
			if hasAttr(t, "charset") {
				return true, ""
			}
			if v, _ := attrValue(t, "http-equiv"); strings.EqualFold(v, "content-type") {
				return true, ""
			}
		}
		return false, "Missing <meta charset> declaration"
	})
	c.Register("has-viewport", metaNameRule("viewport", "Missing viewport <meta> tag"))
	c.Register("has-meta-description", metaNameRule("description", "Missing description <meta> tag"))
	langRule := func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "html") {
			if v, ok := attrValue(t, "lang"); ok && strings.TrimSpace(v) != "" {
				return true, ""
			}
		}
		return false, "<html> tag missing lang attribute"
	}
	c.Register("has-lang", langRule)
	c.Register("lang-attribute", langRule)
	c.Register("head-before-body", func(src string, _ []string) (bool, string) {
		clean := strings.ToLower(stripComments(src))
		head := openTagRe("head").FindStringIndex(clean)
		body := openTagRe("body").FindStringIndex(clean)
		if head == nil || body == nil {
			return false, "Document must contain both <head> and <body>"
		}
		return head[0] < body[0], "<head> must come before <body>"
	})
	c.Register("has-stylesheet", func(src string, _ []string) (bool, string) {
		if hasTag(src, "style") {
			return true, ""
		}
		for _, t := range openTags(src, "link") {
			if v, _ := attrValue(t, "rel"); strings.EqualFold(strings.TrimSpace(v), "stylesheet") {
				return true, ""
			}
		}
		return false, "Missing stylesheet (<link rel=\"stylesheet\"> or <style>)"
	})
	c.Register("has-script", func(src string, _ []string) (bool, string) {
		return hasTag(src, "script"), "Missing <script> tag"
	})
	c.Register("no-inline-script", func(src string, _ []string) (bool, string) {
		for _, m := range elementRe("script").FindAllStringSubmatch(stripComments(src), -1) {
			if strings.TrimSpace(m[1]) != "" {
				return false, "Inline <script> content is not allowed, use an external file"
			}
		}
		return true, ""
	})

	// 语义化
	c.Register("semantic-html", func(src string, _ []string) (bool, string) {
		for _, tag := range semanticTags {
			if hasTag(src, tag) {
				return true, ""
			}
		}
		return false, "Use semantic elements such as <header>, <main>, <nav> or <footer>"
	})
	for _, tag := range semanticTags {
		tag := tag
		c.Register("has-"+tag, func(src string, _ []string) (bool, string) {
			return hasTag(src, tag), fmt.Sprintf("Missing <%s> tag", tag)
		})
	}
	c.Register("single-main", func(src string, _ []string) (bool, string) {
		n := countTags(src, "main")
		return n == 1, fmt.Sprintf("Document should have exactly one <main>, found %d", n)
	})
	c.Register("single-h1", func(src string, _ []string) (bool, string) {
		n := countTags(src, "h1")
		return n == 1, fmt.Sprintf("Document should have exactly one <h1>, found %d", n)
	})
	c.Register("has-heading", func(src string, _ []string) (bool, string) {
		return headingRe.MatchString(stripComments(src)), "Missing heading (<h1>-<h6>)"
	})
	c.Register("heading-order", func(src string, _ []string) (bool, string) {
		prev := 0
		for _, m := range headingRe.FindAllStringSubmatch(stripComments(src), -1) {
			level, _ := strconv.Atoi(m[1])
			if prev > 0 && level > prev+1 {
				return false, fmt.Sprintf("Heading level skipped: <h%d> followed by <h%d>", prev, level)
			}
			prev = level
		}
		return true, ""
	})

	// 可访问性
	c.Register("img-alt", func(src string, _ []string) (bool, string) {
		missing := 0
		for _, t := range openTags(src, "img") {
			if !hasAttr(t, "alt") {
				missing++
			}
		}
		return missing == 0, fmt.Sprintf("%d <img> tag(s) missing alt attribute", missing)
	})
	c.Register("alt-not-empty", func(src string, _ []string) (bool, string) {
		empty := 0
		for _, t := range openTags(src, "img") {
			if v, _ := attrValue(t, "alt"); strings.TrimSpace(v) == "" {
				empty++
			}
		}
		return empty == 0, fmt.Sprintf("%d <img> tag(s) with empty alt text", empty)
	})
	c.Register("label-for-inputs", func(src string, _ []string) (bool, string) {
		if missing := unlabeledInputs(src); len(missing) > 0 {
			return false, fmt.Sprintf("Inputs without associated <label>: %s", strings.Join(missing, ", "))
		}
		return true, ""
	})
	c.Register("form-labels", func(src string, _ []string) (bool, string) {
		labels := countTags(src, "label")
		fields := len(labelableFields(parseTree(src)))
		return labels >= fields, fmt.Sprintf("Found %d form field(s) but only %d <label>", fields, labels)
	})
	c.Register("has-aria-role", func(src string, _ []string) (bool, string) {
		for _, n := range allElements(src) {
			if hasAttr(n.raw, "role") {
				return true, ""
			}
		}
		return false, "No element has an ARIA role attribute"
	})
	c.Register("aria-role", func(src string, p []string) (bool, string) {
		role := param(p, 0)
		for _, n := range allElements(src) {
			if v, ok := attrValue(n.raw, "role"); ok && strings.EqualFold(strings.TrimSpace(v), role) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("No element with role=%q", role)
	})
	c.Register("aria-label", func(src string, p []string) (bool, string) {
		tag := param(p, 0)
		tags := openTags(src, tag)
		if len(tags) == 0 {
			return false, fmt.Sprintf("Missing <%s> tag", tag)
		}
		for _, t := range tags {
			if !hasAttr(t, "aria-label") && !hasAttr(t, "aria-labelledby") {
				return false, fmt.Sprintf("<%s> missing aria-label", tag)
			}
		}
		return true, ""
	})
	c.Register("button-text", func(src string, _ []string) (bool, string) {
		for _, n := range findNodes(parseTree(src), "button") {
			if n.fullText() == "" && !hasAttr(n.raw, "aria-label") {
				return false, "<button> must have text content or aria-label"
			}
		}
		return true, ""
	})
	c.Register("no-empty-links", func(src string, _ []string) (bool, string) {
		for _, n := range findNodes(parseTree(src), "a") {
			if n.fullText() == "" && !hasAttr(n.raw, "aria-label") && !n.hasDescendant("img") {
				return false, "<a> tags must not be empty"
			}
		}
		return true, ""
	})
	c.Register("link-text", func(src string, _ []string) (bool, string) {
		for _, n := range findNodes(parseTree(src), "a") {
			text := strings.ToLower(n.fullText())
			if text == "" && !hasAttr(n.raw, "aria-label") {
				return false, "<a> tags must have descriptive text"
			}
			if genericLinkTexts[text] {
				return false, fmt.Sprintf("Link text %q is not descriptive", text)
			}
		}
		return true, ""
	})
	c.Register("link-href", func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "a") {
			if v, ok := attrValue(t, "href"); !ok || strings.TrimSpace(v) == "" {
				return false, "<a> tags must have a non-empty href"
			}
		}
		return true, ""
	})
	c.Register("external-links-safe", func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "a") {
			if v, _ := attrValue(t, "target"); strings.EqualFold(v, "_blank") {
				rel, _ := attrValue(t, "rel")
				if !containsFold(rel, "noopener") && !containsFold(rel, "noreferrer") {
					return false, "Links with target=\"_blank\" must have rel=\"noopener\""
				}
			}
		}
		return true, ""
	})
	c.Register("table-headers", func(src string, _ []string) (bool, string) {
		return hasTag(src, "th"), "Table should have header cells (<th>)"
	})
	c.Register("table-caption", func(src string, _ []string) (bool, string) {
		return hasTag(src, "caption"), "Table should have a <caption>"
	})
	c.Register("input-type", func(src string, p []string) (bool, string) {
		want := param(p, 0)
		for _, t := range openTags(src, "input") {
			if v, _ := attrValue(t, "type"); strings.EqualFold(strings.TrimSpace(v), want) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("Missing <input type=%q>", want)
	})
	c.Register("required-field", func(src string, p []string) (bool, string) {
		name := param(p, 0)
		for _, tag := range []string{"input", "select", "textarea"} {
			for _, t := range openTags(src, tag) {
				if v, _ := attrValue(t, "name"); v == name {
					if hasAttr(t, "required") {
						return true, ""
					}
					return false, fmt.Sprintf("Field %q should be required", name)
				}
			}
		}
		return false, fmt.Sprintf("Missing field named %q", name)
	})
	c.Register("has-placeholder", func(src string, _ []string) (bool, string) {
		for _, tag := range []string{"input", "textarea"} {
			for _, t := range openTags(src, tag) {
				if hasAttr(t, "placeholder") {
					return true, ""
				}
			}
		}
		return false, "No input has a placeholder"
	})
	c.Register("iframe-title", func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "iframe") {
			if v, _ := attrValue(t, "title"); strings.TrimSpace(v) == "" {
				return false, "<iframe> must have a title"
			}
		}
		return true, ""
	})
	c.Register("no-autofocus", func(src string, _ []string) (bool, string) {
		for _, n := range allElements(src) {
			if hasAttr(n.raw, "autofocus") {
				return false, "autofocus attribute should not be used"
			}
		}
		return true, ""
	})
	c.Register("no-positive-tabindex", func(src string, _ []string) (bool, string) {
		for _, n := range allElements(src) {
			if v, ok := attrValue(n.raw, "tabindex"); ok {
				if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i > 0 {
					return false, fmt.Sprintf("Positive tabindex (%d) should not be used", i)
				}
			}
		}
		return true, ""
	})
	c.Register("video-controls", mediaControlsRule("video"))
	c.Register("audio-controls", mediaControlsRule("audio"))
	c.Register("media-captions", func(src string, _ []string) (bool, string) {
		for _, v := range findNodes(parseTree(src), "video") {
			captioned := false
			for _, child := range v.children {
				if child.name != "track" {
					continue
				}
				if kind, _ := attrValue(child.raw, "kind"); strings.EqualFold(kind, "captions") || strings.EqualFold(kind, "subtitles") {
					captioned = true
				}
			}
			if !captioned {
				return false, "<video> should include a captions <track>"
			}
		}
		return true, ""
	})

	// 代码规范
	c.Register("no-deprecated-tags", func(src string, _ []string) (bool, string) {
		var found []string
		for _, tag := range deprecatedTags {
			if hasTag(src, tag) {
				found = append(found, "<"+tag+">")
			}
		}
		return len(found) == 0, fmt.Sprintf("Deprecated tags used: %s", strings.Join(found, ", "))
	})
	c.Register("no-deprecated-attributes", func(src string, _ []string) (bool, string) {
		found := make(map[string]bool)
		var list []string
		for _, n := range allElements(src) {
			for _, attr := range deprecatedAttrs {
				if hasAttr(n.raw, attr) && !found[attr] {
					found[attr] = true
					list = append(list, attr)
				}
			}
		}
		return len(list) == 0, fmt.Sprintf("Deprecated attributes used: %s", strings.Join(list, ", "))
	})
	c.Register("no-inline-styles", func(src string, _ []string) (bool, string) {
		return !inlineStyleRe.MatchString(stripComments(src)), "Inline style attributes are not allowed"
	})
	c.Register("no-inline-handlers", func(src string, _ []string) (bool, string) {
		return !inlineHandlerRe.MatchString(stripComments(src)), "Inline event handlers (onclick, ...) are not allowed"
	})
	c.Register("lowercase-tags", func(src string, _ []string) (bool, string) {
		for _, m := range upperTagRe.FindAllStringSubmatch(stripComments(src), -1) {
			if m[1] != strings.ToLower(m[1]) {
				return false, fmt.Sprintf("Tag names should be lowercase, found <%s>", m[1])
			}
		}
		return true, ""
	})
	c.Register("quoted-attributes", func(src string, _ []string) (bool, string) {
		return !unquotedAttrRe.MatchString(stripComments(src)), "Attribute values should be quoted"
	})
	c.Register("proper-closing-tags", func(src string, _ []string) (bool, string) {
		problems := CheckTagBalance(src)
		return len(problems) == 0, strings.Join(problems, "; ")
	})
	c.Register("no-empty-elements", func(src string, _ []string) (bool, string) {
		var empty []string
		parseTree(src).walk(func(n *node) {
			switch n.name {
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				if len(n.children) == 0 && strings.TrimSpace(n.text.String()) == "" {
					empty = append(empty, "<"+n.name+">")
				}
			}
		})
		return len(empty) == 0, fmt.Sprintf("Empty elements found: %s", strings.Join(empty, ", "))
	})
	c.Register("valid-nesting", func(src string, _ []string) (bool, string) {
		var problem string
		parseTree(src).walk(func(n *node) {
			if problem != "" {
				return
			}
			switch {
			case n.name == "a" && n.hasAncestor("a"):
				problem = "<a> cannot be nested inside another <a>"
			case n.name == "button" && n.hasAncestor("button"):
				problem = "<button> cannot be nested inside another <button>"
			case (n.name == "a" || n.name == "input") && n.hasAncestor("button"):
				problem = fmt.Sprintf("<%s> cannot be placed inside <button>", n.name)
			case n.name == "form" && n.hasAncestor("form"):
				problem = "<form> cannot be nested inside another <form>"
			case isOneOf(n.name, blockTags) && n.parent != nil && n.parent.name == "p":
				problem = fmt.Sprintf("Block element <%s> cannot be placed inside <p>", n.name)
			}
		})
		return problem == "", problem
	})
	c.Register("no-br-spam", func(src string, _ []string) (bool, string) {
		return !brRunRe.MatchString(stripComments(src)), "Avoid using more than two consecutive <br> tags for spacing"
	})

	// 内嵌 <style> 的 CSS 检查
	c.Register("selector", func(src string, p []string) (bool, string) {
		return cssSelectorRule(styleContent(src), p)
	})
	c.Register("property", func(src string, p []string) (bool, string) {
		return cssPropertyRule(styleContent(src), p)
	})
	c.Register("property-value", func(src string, p []string) (bool, string) {
		return cssPropertyValueRule(styleContent(src), p)
	})

	return c
}

func countRule(qualifier string, cmp func(found, want int) bool) RuleFunc {
	return func(src string, p []string) (bool, string) {
		tag := param(p, 0)
		want, err := strconv.Atoi(param(p, 1))
		if err != nil {
			return false, fmt.Sprintf("Invalid count %q for <%s>", param(p, 1), tag)
		}
		found := countTags(src, tag)
		return cmp(found, want), fmt.Sprintf("Expected %s %d <%s> tags, found %d", qualifier, want, tag, found)
	}
}

func metaNameRule(name, msg string) RuleFunc {
	return func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, "meta") {
			if v, _ := attrValue(t, "name"); strings.EqualFold(strings.TrimSpace(v), name) {
				return true, ""
			}
		}
		return false, msg
	}
}

func mediaControlsRule(tag string) RuleFunc {
	return func(src string, _ []string) (bool, string) {
		for _, t := range openTags(src, tag) {
			if !hasAttr(t, "controls") {
				return false, fmt.Sprintf("<%s> should have controls attribute", tag)
			}
		}
		return true, ""
	}
}

func allElements(src string) []*node {
	var nodes []*node
	parseTree(src).walk(func(n *node) {
		nodes = append(nodes, n)
	})
	return nodes
}

func hasSubmitControl(form *node) bool {
	found := false
	form.walk(func(n *node) {
		switch n.name {
		case "button":
			// button 默认 type 即为 submit
			if v, ok := attrValue(n.raw, "type"); !ok || strings.EqualFold(v, "submit") {
				found = true
			}
		case "input":
			if v, _ := attrValue(n.raw, "type"); strings.EqualFold(v, "submit") || strings.EqualFold(v, "image") {
				found = true
			}
		}
	})
	return found
}

func labelableFields(root *node) []*node {
	var fields []*node
	root.walk(func(n *node) {
		switch n.name {
		case "select", "textarea":
			fields = append(fields, n)
		case "input":
			t, _ := attrValue(n.raw, "type")
			if !unlabeledInputTypes[strings.ToLower(strings.TrimSpace(t))] {
				fields = append(fields, n)
			}
		}
	})
	return fields
}

// unlabeledInputs 返回没有关联 label 的表单字段描述。
// 关联方式：label[for=id]、被 label 包裹、或带 aria-label/aria-labelledby。
func unlabeledInputs(src string) []string {
	root := parseTree(src)
	labelFor := make(map[string]bool)
	for _, l := range findNodes(root, "label") {
		if v, ok := attrValue(l.raw, "for"); ok {
			labelFor[strings.TrimSpace(v)] = true
		}
	}
	var missing []string
	for _, f := range labelableFields(root) {
		id, _ := attrValue(f.raw, "id")
		switch {
		case id != "" && labelFor[id]:
		case f.hasAncestor("label"):
		case hasAttr(f.raw, "aria-label"), hasAttr(f.raw, "aria-labelledby"):
		default:
			desc := id
			if desc == "" {
				desc, _ = attrValue(f.raw, "name")
			}
			if desc == "" {
				desc = "<" + f.name + ">"
			}
			missing = append(missing, desc)
		}
	}
	return missing
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func isOneOf(s string, list []string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}
