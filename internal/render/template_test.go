package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelpress/internal/caption"
	"reelpress/internal/render"
)

func TestComposeSubstitutesAllPlaceholders(t *testing.T) {
	fields := caption.Fields{
		Title:    "Morning Light",
		Content:  "First coffee of the day.",
		Hashtags: "#morning #coffee",
		Date:     "14 MAR 2026",
	}
	doc := render.Compose(render.DefaultTemplate(), fields, "http://127.0.0.1:8000/2026-03-14/1_0905/original.jpg")

	if strings.Contains(doc, "{{") {
		t.Fatalf("unsubstituted placeholder remains:\n%s", doc)
	}
	for _, want := range []string{
		"Morning Light",
		"First coffee of the day.",
		"#morning #coffee",
		"14 MAR 2026",
		"http://127.0.0.1:8000/2026-03-14/1_0905/original.jpg",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("composed document missing %q", want)
		}
	}
}

func TestDefaultTemplateHasCaptureElement(t *testing.T) {
	if !strings.Contains(render.DefaultTemplate(), `class="template"`) {
		t.Fatal("default layout must contain the capture element")
	}
}

func TestLoadTemplateFallsBackToBuiltin(t *testing.T) {
	layout, err := render.LoadTemplate("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if layout != render.DefaultTemplate() {
		t.Fatal("empty path must yield the built-in layout")
	}
}

func TestLoadTemplateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.html")
	if err := os.WriteFile(path, []byte("<div class=\"template\">{{title}}</div>"), 0o644); err != nil {
		t.Fatal(err)
	}
	layout, err := render.LoadTemplate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(layout, "{{title}}") {
		t.Fatalf("unexpected layout: %q", layout)
	}
}

func TestLoadTemplateMissingFileFails(t *testing.T) {
	if _, err := render.LoadTemplate(filepath.Join(t.TempDir(), "absent.html")); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
