package gamma

import "testing"

func TestParsedPrices(t *testing.T) {
	tests := []struct {
		raw  string
		want []float64
	}{
		{`["0.35","0.65"]`, []float64{0.35, 0.65}},
		{`[0.35, 0.65]`, []float64{0.35, 0.65}},
		{`[]`, []float64{}},
	}
	for _, tt := range tests {
		m := Market{OutcomePrices: tt.raw}
		got := m.ParsedPrices()
		if len(got) != len(tt.want) {
			t.Fatalf("ParsedPrices(%s) = %v, want %v", tt.raw, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("ParsedPrices(%s)[%d] = %v, want %v", tt.raw, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParsedPricesMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `["abc"]`, ``} {
		m := Market{OutcomePrices: raw}
		if got := m.ParsedPrices(); got != nil {
			t.Fatalf("ParsedPrices(%q) = %v, want nil", raw, got)
		}
	}
}

func TestParsedOutcomesAndTokenIDs(t *testing.T) {
	m := Market{
		Outcomes:     `["Yes","No"]`,
		ClobTokenIDs: `["111","222"]`,
	}
	if got := m.ParsedOutcomes(); len(got) != 2 || got[0] != "Yes" {
		t.Fatalf("outcomes = %v", got)
	}
	if got := m.ParsedTokenIDs(); len(got) != 2 || got[1] != "222" {
		t.Fatalf("token ids = %v", got)
	}
	empty := Market{}
	if empty.ParsedOutcomes() != nil || empty.ParsedTokenIDs() != nil {
		t.Fatalf("empty fields must parse to nil")
	}
}
