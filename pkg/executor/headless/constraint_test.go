package headless

import (
	"errors"
	"testing"
	"time"
)

func TestPatternMatcher_IsAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		denied  []string
		url     string
		want    bool
	}{
		{
			name: "no patterns allows all",
			url:  "https://example.com/",
			want: true,
		},
		{
			name:    "allowed host with any path",
			allowed: []string{"https://example.com/*"},
			url:     "https://example.com/a/b?c=d",
			want:    true,
		},
		{
			name:    "other host rejected",
			allowed: []string{"https://example.com/*"},
			url:     "https://evil.test/",
			want:    false,
		},
		{
			name:    "denied wins over allowed",
			allowed: []string{"https://example.com/*"},
			denied:  []string{"*/admin*"},
			url:     "https://example.com/admin/users",
			want:    false,
		},
		{
			name:    "alternatives",
			allowed: []string{"https://{a,b}.example.com/*"},
			url:     "https://b.example.com/x",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm, err := NewPatternMatcher(tt.allowed, tt.denied)
			if err != nil {
				t.Fatalf("NewPatternMatcher() error = %v", err)
			}
			if got := pm.IsAllowed(tt.url); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestConstraintManager_ValidateMethod(t *testing.T) {
	cm, err := NewConstraintManager(ConstraintConfig{AllowedMethods: []string{"click", "fill"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := cm.ValidateMethod("Click"); err != nil {
		t.Errorf("ValidateMethod(Click) error = %v, want nil", err)
	}

	err = cm.ValidateMethod("press")
	var violation *ConstraintViolation
	if !errors.As(err, &violation) {
		t.Fatalf("ValidateMethod(press) error = %v, want ConstraintViolation", err)
	}
	if violation.Type != ViolationMethodRestriction {
		t.Errorf("violation type = %s, want %s", violation.Type, ViolationMethodRestriction)
	}

	open, _ := NewConstraintManager(ConstraintConfig{})
	if err := open.ValidateMethod("press"); err != nil {
		t.Errorf("empty allowed_methods rejected press: %v", err)
	}
}

func TestConstraintManager_ValidateURL(t *testing.T) {
	cm, err := NewConstraintManager(ConstraintConfig{
		AllowedURLs: []string{"https://example.com/*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, url := range []string{"https://example.com/a", "about:blank", "https://example.com/a", ""} {
		if err := cm.ValidateURL(url); err != nil {
			t.Errorf("ValidateURL(%q) error = %v", url, err)
		}
	}

	err = cm.ValidateURL("https://other.test/")
	var violation *ConstraintViolation
	if !errors.As(err, &violation) || violation.Type != ViolationURLPattern {
		t.Errorf("ValidateURL(other) error = %v, want url_pattern violation", err)
	}

	visited := cm.GetCurrentState().VisitedURLs
	if len(visited) != 1 || visited[0] != "https://example.com/a" {
		t.Errorf("VisitedURLs = %v, want one entry for example.com/a", visited)
	}
}

func TestConstraintManager_RecordStep(t *testing.T) {
	cm, _ := NewConstraintManager(ConstraintConfig{MaxSteps: 2})

	for i := 0; i < 2; i++ {
		if err := cm.RecordStep(); err != nil {
			t.Fatalf("RecordStep() #%d error = %v", i+1, err)
		}
	}

	err := cm.RecordStep()
	var violation *ConstraintViolation
	if !errors.As(err, &violation) || violation.Type != ViolationStepCount {
		t.Errorf("third RecordStep() error = %v, want step_count violation", err)
	}
	if got := cm.GetCurrentState().Steps; got != 3 {
		t.Errorf("Steps = %d, want 3", got)
	}
}

func TestConstraintManager_CheckTimeout(t *testing.T) {
	cm, _ := NewConstraintManager(ConstraintConfig{Timeout: time.Nanosecond})
	time.Sleep(time.Millisecond)

	err := cm.CheckTimeout()
	var violation *ConstraintViolation
	if !errors.As(err, &violation) || violation.Type != ViolationTimeout {
		t.Errorf("CheckTimeout() error = %v, want timeout violation", err)
	}

	none, _ := NewConstraintManager(ConstraintConfig{})
	if err := none.CheckTimeout(); err != nil {
		t.Errorf("CheckTimeout() without timeout error = %v", err)
	}
}

func TestMatchURL(t *testing.T) {
	ok, err := MatchURL("https://example.com/cart*", "https://example.com/cart?id=1")
	if err != nil || !ok {
		t.Errorf("MatchURL() = %v, %v; want true, nil", ok, err)
	}
	ok, _ = MatchURL("https://example.com/cart", "https://example.com/")
	if ok {
		t.Error("MatchURL() matched a different path")
	}
}
