package poker

import (
	"math/rand/v2"
	"testing"
)

func TestDeck(t *testing.T) {
	t.Parallel()
	deck := NewDeck(rand.New(rand.NewPCG(42, 42)))

	cards1 := deck.Deal(2)
	cards2 := deck.Deal(3)
	if len(cards1) != 2 || len(cards2) != 3 {
		t.Fatalf("unexpected deal sizes %d, %d", len(cards1), len(cards2))
	}
	for _, c1 := range cards1 {
		for _, c2 := range cards2 {
			if c1 == c2 {
				t.Error("Dealt same card twice")
			}
		}
	}

	if !deck.Burn() {
		t.Fatal("burn should succeed")
	}
	if deck.Remaining() != 46 {
		t.Errorf("Expected 46 remaining, got %d", deck.Remaining())
	}

	remaining := deck.Deal(46)
	if len(remaining) != 46 {
		t.Errorf("Expected 46 remaining cards, got %d", len(remaining))
	}
	if extra := deck.Deal(1); extra != nil {
		t.Error("Should not be able to deal from empty deck")
	}
	if deck.Burn() {
		t.Error("Should not be able to burn from empty deck")
	}
}

func TestDeckDealsEveryCardOnce(t *testing.T) {
	t.Parallel()
	deck := NewDeck(rand.New(rand.NewPCG(7, 11)))
	var seen Hand
	for _, c := range deck.Deal(52) {
		if seen.HasCard(c) {
			t.Fatalf("card %s dealt twice", c)
		}
		seen.AddCard(c)
	}
	if seen.CountCards() != 52 {
		t.Errorf("expected 52 distinct cards, got %d", seen.CountCards())
	}
}

func TestDeckIsDeterministicForSeed(t *testing.T) {
	t.Parallel()
	a := NewDeck(rand.New(rand.NewPCG(1, 2))).Deal(52)
	b := NewDeck(rand.New(rand.NewPCG(1, 2))).Deal(52)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("decks diverged at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestNewDeckFromCards(t *testing.T) {
	t.Parallel()
	top := MustParseCards("As Ks As Qh")
	deck := NewDeckFromCards(top...)

	got := deck.Deal(3)
	want := MustParseCards("As Ks Qh")
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("card %d = %s, want %s", i, got[i], want[i])
		}
	}
	if deck.Remaining() != 49 {
		t.Errorf("expected 49 remaining, got %d", deck.Remaining())
	}

	var seen Hand
	for _, c := range append(got, deck.Deal(49)...) {
		seen.AddCard(c)
	}
	if seen.CountCards() != 52 {
		t.Errorf("stacked deck should still hold 52 distinct cards, got %d", seen.CountCards())
	}
}
