package poker

import (
	"testing"
)

func hand(t *testing.T, s string) Hand {
	t.Helper()
	cards, err := ParseCards(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return NewHand(cards...)
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  HandType
	}{
		{"high card", "As Kd 9h 7c 4s 3d 2h", HighCard},
		{"pair", "As Ad 9h 7c 4s 3d 2h", Pair},
		{"two pair", "As Ad 9h 9c 4s 3d 2h", TwoPair},
		{"trips", "As Ad Ah 9c 4s 3d 2h", ThreeOfAKind},
		{"straight", "9s 8d 7h 6c 5s Kd 2h", Straight},
		{"wheel", "As 2d 3h 4c 5s Kd 9h", Straight},
		{"flush", "As Ks 9s 7s 2s 3d 2h", Flush},
		{"full house", "As Ad Ah 9c 9s 3d 2h", FullHouse},
		{"full house from two trips", "As Ad Ah 9c 9s 9d 2h", FullHouse},
		{"quads", "As Ad Ah Ac 9s 3d 2h", FourOfAKind},
		{"straight flush", "9s 8s 7s 6s 5s Kd 2h", StraightFlush},
		{"royal flush", "As Ks Qs Js Ts 2d 3h", StraightFlush},
		{"five cards", "As Ks Qs Js 9d", HighCard},
		{"six cards", "As Ad Ks Qs Js 9d", Pair},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(hand(t, tc.cards))
			if got.Type() != tc.want {
				t.Errorf("Evaluate(%s) = %s, want %s", tc.cards, got.Type(), tc.want)
			}
		})
	}
}

func TestEvaluateOrdering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		better string
		worse  string
	}{
		{"ace high beats seven high", "As 4d 3h 2c 9s", "7s 5d 4h 3c 2d"},
		{"kicker decides pair", "As Ad Kh 7c 4s 3d 2h", "Ah Ac Qh 7d 4c 3s 2d"},
		{"higher two pair", "Ks Kd 3h 3c Qs", "Qd Qc Jh Jc As"},
		{"two pair kicker", "Ks Kd 3h 3c Qs", "Kh Kc 3s 3d Js"},
		{"six high straight beats wheel", "As 2d 3h 4c 5s 6d", "As 2d 3h 4c 5s Kd"},
		{"flush beats straight", "As Ks 9s 7s 2s", "9d 8c 7h 6c 5s"},
		{"full house trips first", "3s 3d 3h 2c 2s", "2h 2d 2c As Ad"},
		{"quads kicker", "9s 9d 9h 9c As", "9s 9d 9h 9c Ks"},
		{"straight flush beats quads", "5s 4s 3s 2s As", "Ks Kd Kh Kc As"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := Evaluate(hand(t, tc.better))
			b := Evaluate(hand(t, tc.worse))
			if CompareHands(a, b) != 1 {
				t.Errorf("%s (%s) should beat %s (%s)", tc.better, a, tc.worse, b)
			}
			if CompareHands(b, a) != -1 {
				t.Errorf("comparison should be antisymmetric")
			}
		})
	}
}

func TestEvaluateTies(t *testing.T) {
	t.Parallel()
	// Board plays for both players.
	a := Evaluate(hand(t, "2c 3d As Ks Qs Js Ts"))
	b := Evaluate(hand(t, "4c 5d As Ks Qs Js Ts"))
	if CompareHands(a, b) != 0 {
		t.Errorf("expected tie, got %s vs %s", a, b)
	}

	// Suits never matter outside flushes.
	c := Evaluate(hand(t, "As Ad Kh 7c 4s"))
	d := Evaluate(hand(t, "Ah Ac Ks 7d 4c"))
	if c != d {
		t.Errorf("expected identical ranks, got %d vs %d", c, d)
	}
}

func TestEvaluateRejectsWrongSize(t *testing.T) {
	t.Parallel()
	if Evaluate(hand(t, "As Kd 9h 7c")) != 0 {
		t.Error("four cards should not evaluate")
	}
	if Evaluate(hand(t, "As Kd 9h 7c 4s 3d 2h Qc")) != 0 {
		t.Error("eight cards should not evaluate")
	}
}

func TestHandRankString(t *testing.T) {
	t.Parallel()
	if got := Evaluate(hand(t, "As Ad Ah 9c 9s")).String(); got != "Full House" {
		t.Errorf("String() = %q", got)
	}
	if HandRank(0).String() != "Unknown" {
		t.Error("zero rank should be Unknown")
	}
}

func BenchmarkEvaluateSevenCards(b *testing.B) {
	h := NewHand(MustParseCards("As Kd 9h 7c 4s 3d 2h")...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(h)
	}
}
