package cost

import "testing"

func TestCheckBudgetEnforcementWithinCaps(t *testing.T) {
	c := CheckBudgetEnforcement(1000, 200, 1500)
	if !c.PrimaryOK {
		t.Error("expected primary within soft cap")
	}
	if !c.TotalOK {
		t.Error("expected total within hard cap")
	}
	if c.HardCapCents != 2250 {
		t.Errorf("expected hard cap 2250, got %d", c.HardCapCents)
	}
}

func TestCheckBudgetEnforcementSoftCapAdvisory(t *testing.T) {
	// Primary past the soft cap but total under the hard cap: flagged, not fatal.
	c := CheckBudgetEnforcement(1600, 0, 1500)
	if c.PrimaryOK {
		t.Error("expected primary over soft cap")
	}
	if !c.TotalOK {
		t.Error("expected total still within hard cap")
	}
}

func TestCheckBudgetEnforcementHardCap(t *testing.T) {
	tests := []struct {
		name           string
		primary, retry int64
		wantTotalOK    bool
	}{
		{"exactly at hard cap", 1500, 750, true},
		{"one cent over", 1500, 751, false},
		{"retry alone breaches", 0, 2300, false},
	}
	for _, tt := range tests {
		c := CheckBudgetEnforcement(tt.primary, tt.retry, 1500)
		if c.TotalOK != tt.wantTotalOK {
			t.Errorf("%s: expected TotalOK=%v, got %v", tt.name, tt.wantTotalOK, c.TotalOK)
		}
	}
}

func TestRetryOverheadPercent(t *testing.T) {
	s := Summary{PrimaryCents: 1000, RetryCents: 250}
	pct, ok := s.RetryOverheadPercent()
	if !ok {
		t.Fatal("expected overhead to be defined")
	}
	if pct != 25 {
		t.Errorf("expected 25%%, got %v", pct)
	}
}

func TestRetryOverheadUndefinedWithoutPrimary(t *testing.T) {
	s := Summary{PrimaryCents: 0, RetryCents: 500}
	if _, ok := s.RetryOverheadPercent(); ok {
		t.Error("expected overhead undefined when no primary spend exists")
	}
}

func TestComputeCentsKnownModels(t *testing.T) {
	tests := []struct {
		model   string
		in, out int64
		want    int64
	}{
		{"openai/gpt-4o-mini", 1_000_000, 1_000_000, 75},
		{"anthropic/claude-sonnet-4", 1_000_000, 1_000_000, 1800},
		{"anthropic/claude-opus-4", 2_000_000, 0, 3000},
		{"anthropic/claude-sonnet-4", 0, 0, 0},
	}
	for _, tt := range tests {
		got, known := ComputeCents(tt.model, tt.in, tt.out)
		if !known {
			t.Errorf("%s: expected known pricing", tt.model)
		}
		if got != tt.want {
			t.Errorf("%s: expected %d cents, got %d", tt.model, tt.want, got)
		}
	}
}

func TestComputeCentsRounds(t *testing.T) {
	// 500k input tokens at 15c/1M is 7.5c, rounded to 8.
	got, _ := ComputeCents("openai/gpt-4o-mini", 500_000, 0)
	if got != 8 {
		t.Errorf("expected 8 cents, got %d", got)
	}
}

func TestComputeCentsFallsBackToMostExpensiveRate(t *testing.T) {
	got, known := ComputeCents("vendor/unlisted-model", 1_000_000, 1_000_000)
	if known {
		t.Error("expected unknown pricing flag")
	}
	opus, _ := ComputeCents("anthropic/claude-opus-4", 1_000_000, 1_000_000)
	if got != opus {
		t.Errorf("expected fallback to opus rate %d, got %d", opus, got)
	}
}
