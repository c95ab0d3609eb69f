package caption_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"reelpress/internal/caption"
	"reelpress/internal/services"
)

var reference = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestParseBasicCaption(t *testing.T) {
	fields, err := caption.Parse("Title : A\nContent : B\nHashtags : C", reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Title != "A" || fields.Content != "B" || fields.Hashtags != "C" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if fields.Date != "14 MAR 2026" {
		t.Fatalf("expected date default, got %q", fields.Date)
	}
}

func TestParseExplicitDate(t *testing.T) {
	fields, err := caption.Parse("Title : A\nContent : B\nHashtags : C\nDate : 01 JAN 2030", reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Date != "01 JAN 2030" {
		t.Fatalf("expected explicit date, got %q", fields.Date)
	}
}

func TestParseMissingContent(t *testing.T) {
	_, err := caption.Parse("Title : A\nHashtags : C", reference)
	if err == nil {
		t.Fatal("expected missing Content to fail")
	}
	if !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "Content") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestParseMissingTitleReportedFirst(t *testing.T) {
	_, err := caption.Parse("Hashtags : C", reference)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "Title") {
		t.Fatalf("expected first missing field to be Title, got %v", err)
	}
}

func TestParseMultilineFields(t *testing.T) {
	raw := "Title : Golden Hour\nContent : First line\nsecond line\n\nthird line\nHashtags : #a #b\nDate : 05 MAY 2026"
	fields, err := caption.Parse(raw, reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Content != "First line\nsecond line\n\nthird line" {
		t.Fatalf("multiline content mishandled: %q", fields.Content)
	}
}

func TestParseCaseInsensitiveLabels(t *testing.T) {
	fields, err := caption.Parse("TITLE : A\ncontent : B\nHashTags : C", reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Title != "A" || fields.Content != "B" || fields.Hashtags != "C" {
		t.Fatalf("case-insensitive labels mishandled: %+v", fields)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	fields, err := caption.Parse("Title :   spaced out  \nContent :\n  body  \nHashtags :\t#x\t", reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Title != "spaced out" || fields.Content != "body" || fields.Hashtags != "#x" {
		t.Fatalf("whitespace not trimmed: %+v", fields)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if _, err := caption.Parse("", reference); !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected ErrFormat for empty input, got %v", err)
	}
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	fields, err := caption.Parse("Title : first\nContent : B\nHashtags : C\nTitle : second", reference)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fields.Title != "first" {
		t.Fatalf("expected first Title occurrence, got %q", fields.Title)
	}
}
