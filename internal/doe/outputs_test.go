package doe

import (
	"math"
	"testing"
)

func TestParseOutputs(t *testing.T) {
	got := ParseOutputs("12.5\r\n\n  7 \nabc\n-3e2\n")
	want := []float64{12.5, 7, math.NaN(), -300}
	if len(got) != len(want) {
		t.Fatalf("Expected %d values, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("Value %d: expected NaN gap, got %v", i, got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Errorf("Value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPasteOutputs(t *testing.T) {
	runs := Generate([]Factor{NewFactor("A", 1, 2, 3, 4)})

	pasted := PasteOutputs(runs, 2, "10\nbad\n30\n40\n50")

	for _, r := range runs {
		if r.Output != nil {
			t.Fatal("PasteOutputs must not modify its input")
		}
	}

	expect := map[int]*float64{1: nil, 2: ptr(10), 3: nil, 4: ptr(30)}
	for _, r := range pasted {
		w := expect[r.ID]
		switch {
		case w == nil && r.Output != nil:
			t.Errorf("Run %d: expected no output, got %v", r.ID, *r.Output)
		case w != nil && (r.Output == nil || *r.Output != *w):
			t.Errorf("Run %d: expected %v, got %v", r.ID, *w, r.Output)
		}
	}

	if len(ValidRuns(pasted)) != 2 {
		t.Errorf("Expected 2 valid runs, got %d", len(ValidRuns(pasted)))
	}
}

func TestPasteOutputs_UnknownStart(t *testing.T) {
	runs := Generate([]Factor{NewFactor("A", 1, 2)})
	pasted := PasteOutputs(runs, 99, "1\n2")
	if len(ValidRuns(pasted)) != 0 {
		t.Error("Expected no outputs for an unknown start id")
	}
}

func TestSetOutput(t *testing.T) {
	runs := Generate([]Factor{NewFactor("A", 1, 2)})
	v := 3.5
	set := SetOutput(runs, 2, &v)
	v = 99

	if set[1].Output == nil || *set[1].Output != 3.5 {
		t.Errorf("Expected run 2 output 3.5, got %v", set[1].Output)
	}
	if runs[1].Output != nil {
		t.Error("SetOutput must not modify its input")
	}

	cleared := SetOutput(set, 2, nil)
	if cleared[1].Output != nil {
		t.Error("Expected output to be cleared")
	}
}

func ptr(v float64) *float64 { return &v }
