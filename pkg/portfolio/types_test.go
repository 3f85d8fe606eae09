package portfolio

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"BUY", SideBuy, false},
		{"SELL", SideSell, false},
		{"buy", SideBuy, false},
		{"Sell", SideSell, false},
		{"HOLD", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSide(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOrder) {
					t.Errorf("ParseSide(%q) err = %v, want ErrInvalidOrder", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSide(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSide(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOrderJSONRoundTripKeepsPriceExact(t *testing.T) {
	o := &Order{
		ID:        "id-1",
		Name:      "INFY",
		Qty:       10,
		Price:     dec("1500.55"),
		Mode:      SideBuy,
		Timestamp: 1700000000000,
	}

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	var back Order
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Price.Equal(o.Price) {
		t.Errorf("price = %s, want %s", back.Price, o.Price)
	}
}

func TestOrderAcceptsNumericPriceJSON(t *testing.T) {
	// The frontend sends price as a JSON number, not a string.
	var o Order
	if err := json.Unmarshal([]byte(`{"name":"INFY","qty":3,"price":99.95,"mode":"BUY"}`), &o); err != nil {
		t.Fatal(err)
	}
	if !o.Price.Equal(dec("99.95")) {
		t.Errorf("price = %s, want 99.95", o.Price)
	}
}
