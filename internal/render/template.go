package render

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"reelpress/internal/caption"
)

//go:embed template.html
var defaultTemplate string

// DefaultTemplate returns the built-in post layout.
func DefaultTemplate() string { return defaultTemplate }

// LoadTemplate reads the layout from path, falling back to the built-in
// layout when path is empty.
func LoadTemplate(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", path, err)
	}
	return string(data), nil
}

// Compose substitutes the caption fields and image URL into the layout.
// Each placeholder is replaced once, matching how the layout uses them.
func Compose(layout string, fields caption.Fields, imageURL string) string {
	replace := func(doc, placeholder, value string) string {
		return strings.Replace(doc, placeholder, value, 1)
	}
	doc := layout
	doc = replace(doc, "{{image}}", imageURL)
	doc = replace(doc, "{{title}}", fields.Title)
	doc = replace(doc, "{{content}}", fields.Content)
	doc = replace(doc, "{{hashtags}}", fields.Hashtags)
	doc = replace(doc, "{{date}}", fields.Date)
	return doc
}
