package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr error
	}{
		{in: "5000", want: 500000},
		{in: "5000.00", want: 500000},
		{in: "0.1", want: 10},
		{in: " 12.34 ", want: 1234},
		{in: "-3.5", want: -350},
		{in: "1e2", want: 10000},
		{in: "1.234", wantErr: ErrPrecision},
		{in: "abc", wantErr: ErrInvalid},
		{in: "", wantErr: ErrInvalid},
		{in: "999999999999999999999", wantErr: ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	for m, want := range map[Money]string{0: "0.00", 5: "0.05", 500000: "5000.00", -1234: "-12.34"} {
		if got := m.String(); got != want {
			t.Errorf("Money(%d).String() = %q, want %q", int64(m), got, want)
		}
	}
}

func TestJSON(t *testing.T) {
	var body struct {
		Importe Money `json:"importe"`
	}
	if err := json.Unmarshal([]byte(`{"importe": 5000.5}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.Importe != 500050 {
		t.Errorf("number decode = %d", body.Importe)
	}
	if err := json.Unmarshal([]byte(`{"importe": "120.10"}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.Importe != 12010 {
		t.Errorf("string decode = %d", body.Importe)
	}
	if err := json.Unmarshal([]byte(`{"importe": 0.001}`), &body); err == nil {
		t.Error("expected precision error")
	}

	out, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 30000})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"total":300.00}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestAddDoesNotDrift(t *testing.T) {
	// 0.1 added ten times is exactly 1.00 in cents
	var total Money
	for i := 0; i < 10; i++ {
		m, _ := Parse("0.1")
		total = total.Add(m)
	}
	if total != 100 {
		t.Errorf("total = %s, want 1.00", total)
	}
	if !total.Decimal().Equal(decimal.NewFromInt(1)) {
		t.Error("decimal view mismatch")
	}
	if got := Money(500).Sub(200).Add(50); got != 350 {
		t.Errorf("Sub/Add = %d", got)
	}
}
