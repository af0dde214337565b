package executor

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveTemplate(t *testing.T) {
	vars := map[string]string{
		"draft":  "first attempt",
		"review": "looks fine",
	}

	got, err := ResolveTemplate("Revise: {{draft}}\n\nFeedback: {{review}}", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Revise: first attempt\n\nFeedback: looks fine"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveTemplateNoPlaceholders(t *testing.T) {
	got, err := ResolveTemplate("plain prompt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain prompt" {
		t.Errorf("got %q", got)
	}
}

func TestResolveTemplateUnresolvedFails(t *testing.T) {
	_, err := ResolveTemplate("use {{missing}} here", map[string]string{"draft": "x"})
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	var uerr *UnresolvedVarError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnresolvedVarError, got %T", err)
	}
	if uerr.Name != "missing" {
		t.Errorf("Name = %q, want missing", uerr.Name)
	}
	if !strings.Contains(err.Error(), "draft") {
		t.Errorf("error should list bound variables, got %q", err.Error())
	}
}

func TestResolveTemplateUnterminatedLeftAlone(t *testing.T) {
	got, err := ResolveTemplate("open {{brace and stop", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "open {{brace and stop" {
		t.Errorf("got %q", got)
	}
}

func TestTemplateVars(t *testing.T) {
	names := TemplateVars("{{a}} then {{b}} then {{a}} again")
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("got %v, want [a b]", names)
	}
	if got := TemplateVars("nothing here"); len(got) != 0 {
		t.Errorf("expected no vars, got %v", got)
	}
}
