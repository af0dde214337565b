package executor

import "testing"

func TestEvalConditionTruthiness(t *testing.T) {
	vars := map[string]string{
		"review":  "needs work",
		"empty":   "",
		"verdict": "approved",
	}

	tests := []struct {
		cond string
		want bool
	}{
		{"", true},
		{"review", true},
		{"empty", false},
		{"missing", false},
		{"!review", false},
		{"!missing", true},
		{`verdict == "approved"`, true},
		{`verdict == "rejected"`, false},
		{`verdict != "rejected"`, true},
		{`missing == ""`, true},
		{"review && verdict", true},
		{"review && empty", false},
		{"empty || verdict", true},
		{"empty || missing", false},
		{`!(verdict == "approved")`, false},
		{`(empty || review) && verdict != "rejected"`, true},
	}
	for _, tt := range tests {
		got, err := EvalCondition(tt.cond, vars)
		if err != nil {
			t.Errorf("EvalCondition(%q) error: %v", tt.cond, err)
			continue
		}
		if got != tt.want {
			t.Errorf("EvalCondition(%q) = %v, want %v", tt.cond, got, tt.want)
		}
	}
}

func TestEvalConditionMalformed(t *testing.T) {
	bad := []string{
		"&&",
		"a &&",
		"(a",
		`a == approved`,
		`a == "unterminated`,
		"a b",
	}
	for _, cond := range bad {
		if _, err := EvalCondition(cond, map[string]string{"a": "x"}); err == nil {
			t.Errorf("EvalCondition(%q) should fail", cond)
		}
	}
}
