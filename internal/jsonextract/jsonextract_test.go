package jsonextract

import "testing"

type classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func TestObject_PlainJSON(t *testing.T) {
	var c classification
	err := Object(`{"category": "water", "confidence": 0.85}`, &c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != "water" || c.Confidence != 0.85 {
		t.Errorf("unexpected result: %+v", c)
	}
}

func TestObject_WrappedInProse(t *testing.T) {
	text := `Based on the information provided, here is my classification:

{"category": "municipal", "confidence": 0.7}

Let me know if you need anything else.`

	var c classification
	if err := Object(text, &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != "municipal" {
		t.Errorf("expected municipal, got %q", c.Category)
	}
}

func TestObject_MarkdownFence(t *testing.T) {
	text := "```json\n{\"category\": \"utility\", \"confidence\": 0.9}\n```"

	var c classification
	if err := Object(text, &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != "utility" {
		t.Errorf("expected utility, got %q", c.Category)
	}
}

func TestObject_BracesInsideStrings(t *testing.T) {
	text := `prefix {"category": "water", "confidence": 0.6, "reasoning": "name contains {water district}"} suffix`

	var c struct {
		Category  string `json:"category"`
		Reasoning string `json:"reasoning"`
	}
	if err := Object(text, &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Reasoning != "name contains {water district}" {
		t.Errorf("unexpected reasoning: %q", c.Reasoning)
	}
}

func TestObject_TrailingGarbageAfterObject(t *testing.T) {
	text := `{"category": "water"} and then } some } stray braces`

	var c classification
	if err := Object(text, &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != "water" {
		t.Errorf("expected water, got %q", c.Category)
	}
}

func TestObject_NoJSON(t *testing.T) {
	var c classification
	if err := Object("I could not classify this organization.", &c); err == nil {
		t.Fatal("expected error for text without JSON")
	}
}

func TestObject_Empty(t *testing.T) {
	var c classification
	if err := Object("", &c); err == nil {
		t.Fatal("expected error for empty text")
	}
}
