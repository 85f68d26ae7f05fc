package kernel

import "testing"

func TestStatusErrIsNilOnlyForOK(t *testing.T) {
	if err := StatusOK.Err(); err != nil {
		t.Fatalf("expected nil error for StatusOK, got %v", err)
	}
	for _, s := range []Status{StatusParam, StatusTimeout, StatusResource, StatusState, StatusNoMem, StatusISR} {
		if err := s.Err(); err == nil {
			t.Errorf("expected non-nil error for %v", s)
		}
	}
}

func TestStatusStringUnknownValue(t *testing.T) {
	if got := Status(999).String(); got != "unknown status" {
		t.Errorf("expected unknown status text, got %q", got)
	}
}

func TestConfigClampsMaxPriorities(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-5, 1},
		{16, 16},
		{32, 32},
		{100, 32},
	}
	for _, c := range cases {
		cfg := Config{MaxPriorities: c.in}
		if got := cfg.maxPriorities(); got != c.want {
			t.Errorf("maxPriorities(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestConfigDefaultsTickRate(t *testing.T) {
	cfg := Config{}
	if got := cfg.tickRateHz(); got != 1000 {
		t.Errorf("expected default tick rate 1000, got %d", got)
	}
	cfg.TickRateHz = 100
	if got := cfg.tickRateHz(); got != 100 {
		t.Errorf("expected configured tick rate 100, got %d", got)
	}
}
