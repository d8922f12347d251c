package service

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// extractHashtags возвращает уникальные хэштеги текста в нижнем регистре без '#'
func extractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := lo.Map(matches, func(m []string, _ int) string {
		return strings.ToLower(m[1])
	})
	return lo.Uniq(tags)
}
