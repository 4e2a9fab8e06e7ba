package poker

import (
	"math/rand/v2"
)

// Deck is a single-use 52 card deck. Cards come off the top in order and are
// never handed out twice.
type Deck struct {
	cards [52]Card
	next  int
}

// NewDeck creates a deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{}
	d.fill()
	d.shuffle(rng)
	return d
}

// NewDeckFromCards stacks a deck: the given cards are dealt first, in order, and the
// remaining cards follow in canonical order. Duplicates are ignored.
func NewDeckFromCards(top ...Card) *Deck {
	d := &Deck{}
	var seen Hand
	i := 0
	for _, c := range top {
		if seen.HasCard(c) {
			continue
		}
		seen.AddCard(c)
		d.cards[i] = c
		i++
	}
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := NewCard(rank, suit)
			if seen.HasCard(c) {
				continue
			}
			d.cards[i] = c
			i++
		}
	}
	return d
}

func (d *Deck) fill() {
	i := 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	d.next = 0
}

// Fisher-Yates
func (d *Deck) shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the top, or nil if fewer than n remain.
func (d *Deck) Deal(n int) []Card {
	if n < 0 || d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// Burn discards the top card. It reports false when the deck is empty.
func (d *Deck) Burn() bool {
	if d.next >= len(d.cards) {
		return false
	}
	d.next++
	return true
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
