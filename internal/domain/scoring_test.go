package domain

import (
	"testing"
	"time"
)

func TestComputeAwardBrackets(t *testing.T) {
	activated := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"immediate", 0, 150},
		{"six hours", 6 * time.Hour, 150},
		{"exactly 12h", 12 * time.Hour, 150},
		{"just past 12h", 12*time.Hour + time.Second, 125},
		{"exactly 24h", 24 * time.Hour, 125},
		{"thirty hours", 30 * time.Hour, 115},
		{"exactly 48h", 48 * time.Hour, 115},
		{"just past 48h", 48*time.Hour + time.Second, 100},
		{"a week", 7 * 24 * time.Hour, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeAward(&activated, activated.Add(tc.elapsed))
			if got != tc.want {
				t.Fatalf("elapsed %v: expected %d points, got %d", tc.elapsed, tc.want, got)
			}
		})
	}
}

func TestComputeAwardWithoutActivation(t *testing.T) {
	if got := ComputeAward(nil, time.Now()); got != 100 {
		t.Fatalf("expected baseline 100 for missing activation, got %d", got)
	}
}

func TestComputeAwardMonotonicallyNonIncreasing(t *testing.T) {
	activated := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	prev := ComputeAward(&activated, activated)
	for h := 1; h <= 72; h++ {
		got := ComputeAward(&activated, activated.Add(time.Duration(h)*time.Hour))
		if got > prev {
			t.Fatalf("award increased from %d to %d at hour %d", prev, got, h)
		}
		prev = got
	}
}
