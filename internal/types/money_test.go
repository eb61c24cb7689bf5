package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoney_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5.714285", "5.71"},
		{"29.715", "29.72"},
		{"0.005", "0.01"},
		{"9", "9.00"},
	}
	for _, tt := range tests {
		m := NewMoney(decimal.RequireFromString(tt.in))
		if got := m.String(); got != tt.want {
			t.Errorf("NewMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMoney_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MoneyFromFloat(29.714285)})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"total":29.71}` {
		t.Errorf("Marshal = %s", out)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"4.005"`), &m); err != nil {
		t.Fatal(err)
	}
	if m.String() != "4.01" {
		t.Errorf("Unmarshal rounded to %s, want 4.01", m)
	}
}
