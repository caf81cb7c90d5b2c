package rating

import (
	"math"
	"testing"
)

func TestExpectedScore(t *testing.T) {
	t.Parallel()
	if got := ExpectedScore(1500, 1500); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("equal ratings: expected score = %v, want 0.5", got)
	}
	ea := ExpectedScore(1600, 1400)
	eb := ExpectedScore(1400, 1600)
	if math.Abs(ea+eb-1) > 1e-9 {
		t.Fatalf("expectations must sum to 1, got %v + %v", ea, eb)
	}
	if ea <= 0.5 {
		t.Fatalf("stronger player expectation = %v, want > 0.5", ea)
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name         string
		a, b         int
		score        float64
		wantA, wantB int
	}{
		{"even win", 1500, 1500, 1, 1516, 1484},
		{"even loss", 1500, 1500, 0, 1484, 1516},
		{"even draw", 1500, 1500, 0.5, 1500, 1500},
		{"upset win", 1400, 1600, 1, 1424, 1576},
		{"favorite win", 1600, 1400, 1, 1608, 1392},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB := Update(tc.a, tc.b, tc.score)
			if gotA != tc.wantA || gotB != tc.wantB {
				t.Fatalf("Update(%d, %d, %v) = %d, %d; want %d, %d",
					tc.a, tc.b, tc.score, gotA, gotB, tc.wantA, tc.wantB)
			}
		})
	}
}

func TestRank(t *testing.T) {
	t.Parallel()
	cases := []struct {
		rating int
		want   string
	}{
		{2400, "Grandmaster"},
		{2000, "Grandmaster"},
		{1999, "Master"},
		{1800, "Master"},
		{1799, "Expert"},
		{1600, "Expert"},
		{1516, "Advanced"},
		{1400, "Advanced"},
		{1399, "Intermediate"},
		{1200, "Intermediate"},
		{1199, "Beginner"},
		{0, "Beginner"},
	}
	for _, tc := range cases {
		if got := Rank(tc.rating); got != tc.want {
			t.Fatalf("Rank(%d) = %q, want %q", tc.rating, got, tc.want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Outcome
		bad  bool
	}{
		{in: "win", want: OutcomeWin},
		{in: "W", want: OutcomeWin},
		{in: "loss", want: OutcomeLoss},
		{in: "l", want: OutcomeLoss},
		{in: "Lose", want: OutcomeLoss},
		{in: "draw", want: OutcomeDraw},
		{in: "d", want: OutcomeDraw},
		{in: "tie", want: OutcomeDraw},
		{in: " win ", want: OutcomeWin},
		{in: "victory", bad: true},
		{in: "", bad: true},
	}
	for _, tc := range cases {
		got, err := ParseOutcome(tc.in)
		if tc.bad {
			if err == nil {
				t.Fatalf("ParseOutcome(%q) accepted, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseOutcome(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseOutcome(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
