package sizegate

import "testing"

func TestEvaluate_PassBelowThreshold(t *testing.T) {
	r := Evaluate(10_737_418_240, 8_053_063_680, 0.90)
	if !r.Pass {
		t.Fatal("expected pass")
	}
	if r.Savings != 10_737_418_240-8_053_063_680 {
		t.Errorf("Savings = %d, want %d", r.Savings, 10_737_418_240-8_053_063_680)
	}
}

func TestEvaluate_FailsAtOrAboveThreshold(t *testing.T) {
	r := Evaluate(10_737_418_240, 9_800_000_000, 0.90)
	if r.Pass {
		t.Fatal("expected fail")
	}
}

func TestEvaluate_ExactBoundaryFails(t *testing.T) {
	original := int64(1_000_000)
	newBytes := int64(float64(original) * 0.90)
	r := Evaluate(original, newBytes, 0.90)
	if r.Pass {
		t.Error("boundary-equal case must not pass (strict less-than)")
	}
}

func TestEvaluate_RatioComputed(t *testing.T) {
	r := Evaluate(1000, 500, 0.9)
	if r.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", r.Ratio)
	}
}
