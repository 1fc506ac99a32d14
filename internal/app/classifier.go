package app

import (
	"strings"

	"reviewlens/internal/domain"
)

// Classify picks the first category, in declaration order, with any keyword
// contained in the lowercased "name url" text. Falls back to the default category.
func Classify(name, url string) domain.Category {
	text := strings.ToLower(name + " " + url)
	for _, c := range domain.Categories() {
		if c.ID == domain.DefaultCategoryID {
			continue
		}
		for _, kw := range c.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return c
			}
		}
	}
	return domain.DefaultCategory()
}
