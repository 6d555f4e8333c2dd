package ehs

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestClassifyHeatBands(t *testing.T) {
	cases := []struct {
		name string
		high *float64
		want string
	}{
		{"nil high", nil, ""},
		{"below lowest band", floatPtr(70), ""},
		{"caution band", floatPtr(82), "Caution"},
		{"extreme caution band", floatPtr(90), "Extreme Caution"},
		{"danger band", floatPtr(100), "Danger"},
		{"extreme danger band", floatPtr(130), "Extreme Danger"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			category, guidance := ClassifyHeat(c.high)
			got := ""
			if category != nil {
				got = *category
			}
			if got != c.want {
				t.Fatalf("ClassifyHeat(%v) category = %q, want %q", c.high, got, c.want)
			}
			if guidance.WorkRestMin == "" {
				t.Fatalf("ClassifyHeat(%v) returned empty guidance", c.high)
			}
		})
	}
}

func TestClassifyFreezeThresholds(t *testing.T) {
	cases := []struct {
		name   string
		low    *float64
		breezy bool
		want   string
	}{
		{"nil low", nil, false, ""},
		{"above freezing", floatPtr(40), false, ""},
		{"frost band", floatPtr(34), false, "Frost"},
		{"freeze band", floatPtr(30), false, "Freeze"},
		{"hard freeze band", floatPtr(20), false, "Hard Freeze"},
		{"hard freeze breezy", floatPtr(20), true, "Hard Freeze"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			badge, guidance := ClassifyFreeze(c.low, c.breezy)
			got := ""
			if badge != nil {
				got = *badge
			}
			if got != c.want {
				t.Fatalf("ClassifyFreeze(%v, %v) badge = %q, want %q", c.low, c.breezy, got, c.want)
			}
			if c.want != "" && (guidance == nil || *guidance == "") {
				t.Fatalf("ClassifyFreeze(%v, %v) returned empty guidance for non-empty badge", c.low, c.breezy)
			}
			if c.breezy && guidance != nil && !contains(*guidance, "Wind-chill") {
				t.Fatalf("ClassifyFreeze breezy=true guidance %q should mention wind-chill", *guidance)
			}
		})
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
