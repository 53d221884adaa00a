// internal/domain/money/money_test.go
package money

import (
	"encoding/json"
	"testing"
)

func TestAddExact(t *testing.T) {
	// 0.1 + 0.2 drifts in float64; Amount must not.
	a, _ := Parse("0.1")
	b, _ := Parse("0.2")
	want, _ := Parse("0.3")
	if got := a.Add(b); !got.Equal(want) {
		t.Errorf("0.1 + 0.2 = %s, want 0.3", got)
	}

	sum := Zero
	for i := 0; i < 1000; i++ {
		sum = sum.Add(New(1, -2)) // 0.01
	}
	if !sum.Equal(FromFloat(10)) {
		t.Errorf("1000 * 0.01 = %s, want 10", sum)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("12,500"); err == nil {
		t.Error("expected parse error for thousands separator")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected parse error for empty string")
	}
}

func TestJSONNumberRendering(t *testing.T) {
	type payload struct {
		Total Amount `json:"total_amount"`
	}

	out, err := json.Marshal(payload{Total: FromFloat(12500.75)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"total_amount":12500.75}` {
		t.Errorf("marshal = %s, want a bare JSON number", out)
	}

	var fromNumber payload
	if err := json.Unmarshal([]byte(`{"total_amount":500}`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	var fromString payload
	if err := json.Unmarshal([]byte(`{"total_amount":"500"}`), &fromString); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if !fromNumber.Total.Equal(fromString.Total) {
		t.Error("number and string forms must decode equally")
	}
}

func TestZeroValue(t *testing.T) {
	var a Amount
	if !a.IsZero() {
		t.Error("zero value must report IsZero")
	}
	if a.String() != "0" {
		t.Errorf("zero value String = %q, want 0", a.String())
	}
}
