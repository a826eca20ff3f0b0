package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxPurposeChars = 200
	maxFeatureChars = 100
)

var (
	titlePattern   = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t#]*$`)
	nextHeading    = regexp.MustCompile(`(?m)^#`)
	bulletPattern  = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+(.+)$`)
	markdownNoise  = strings.NewReplacer("**", "", "__", "", "`", "")
	whitespaceRuns = regexp.MustCompile(`\s+`)

	// 用途章节，按顺序匹配，第一个命中者生效
	purposeHeadings = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*about\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*description\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*overview\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*what\s+is\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*purpose\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*introduction\b.*$`),
	}

	// 功能章节，同样第一个命中者生效
	featureHeadings = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*(?:key\s+)?features\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*what\s+it\s+does\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*functionality\b.*$`),
		regexp.MustCompile(`(?im)^#{1,6}[^\p{L}\n]*highlights\b.*$`),
	}
)

// readmeSignals README 中提取出的信息
type readmeSignals struct {
	Title    string
	Purpose  string
	Features []string
}

// parseReadme 提取标题、用途段落和功能列表
func parseReadme(content string) readmeSignals {
	var s readmeSignals
	content = stripFences(content)

	if m := titlePattern.FindStringSubmatch(content); m != nil {
		s.Title = strings.TrimSpace(markdownNoise.Replace(m[1]))
	}

	for _, heading := range purposeHeadings {
		body, ok := section(content, heading)
		if !ok {
			continue
		}
		text := strings.TrimSpace(whitespaceRuns.ReplaceAllString(markdownNoise.Replace(body), " "))
		if text == "" {
			continue
		}
		s.Purpose = truncateRunes(text, maxPurposeChars)
		break
	}

	for _, heading := range featureHeadings {
		body, ok := section(content, heading)
		if !ok {
			continue
		}
		features := bullets(body)
		if len(features) == 0 {
			continue
		}
		s.Features = features
		break
	}

	return s
}

// stripFences 清空围栏代码块 (``` 或 ~~~) 里的行，代码里的 "# 注释" 不会被当成标题。
// 行数保持不变；未闭合的围栏一直清空到结尾
func stripFences(content string) string {
	lines := strings.Split(content, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case fence == "" && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")):
			fence = trimmed[:3]
			lines[i] = ""
		case fence != "":
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// section 返回 heading 之后到下一个标题之前的正文
func section(content string, heading *regexp.Regexp) (string, bool) {
	loc := heading.FindStringIndex(content)
	if loc == nil {
		return "", false
	}
	body := content[loc[1]:]
	if next := nextHeading.FindStringIndex(body); next != nil {
		body = body[:next[0]]
	}
	return body, true
}

func bullets(body string) []string {
	var out []string
	for _, m := range bulletPattern.FindAllStringSubmatch(body, -1) {
		item := strings.TrimSpace(markdownNoise.Replace(m[1]))
		item = strings.TrimSpace(strings.TrimSuffix(item, ":"))
		if item == "" {
			continue
		}
		out = append(out, truncateRunes(item, maxFeatureChars))
	}
	return out
}

// isReadmeFile 判断文件名是否为 README 相关文件
func isReadmeFile(filename string) bool {
	lower := strings.ToLower(filename)
	if i := strings.LastIndex(lower, "/"); i >= 0 {
		lower = lower[i+1:]
	}
	switch lower {
	case "readme", "readme.md", "readme.txt", "readme.rst", "readme.markdown", "readme.mdown", "readme.mkdn":
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
