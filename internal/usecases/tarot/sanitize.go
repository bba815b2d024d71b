package tarot

import (
	"regexp"
	"strings"
)

var (
	markupTagRe      = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	formattingMarkRe = regexp.MustCompile("[*_#`]")
)

// Sanitize убирает markdown-маркеры и html-теги из ответа модели
func Sanitize(text string) string {
	text = markupTagRe.ReplaceAllString(text, "")
	text = formattingMarkRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
