// Package poker provides the card primitives shared by the engine: a bitset card
// encoding, a single-use shuffled deck and a best-hand evaluator.
//
// A Card is one bit of a 64-bit mask at index suit*13+rank, so a set of cards (a Hand)
// is just the bitwise or of its cards and per-suit rank masks fall out with a shift.
package poker

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Suits
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

// Ranks, ordered from lowest to highest
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// ErrInvalidCard is returned when a card string cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

// Card is a single playing card encoded as one bit.
type Card uint64

// NewCard creates a card from a rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*13 + uint(rank))
}

func (c Card) index() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the card rank, Two (0) through Ace (12).
func (c Card) Rank() uint8 {
	return c.index() % 13
}

// Suit returns the card suit, Clubs (0) through Spades (3).
func (c Card) Suit() uint8 {
	return c.index() / 13
}

// String returns the two character notation, e.g. "As" or "Td".
func (c Card) String() string {
	if c == 0 || bits.OnesCount64(uint64(c)) != 1 || c.index() >= 52 {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// MarshalText encodes the card in two character notation.
func (c Card) MarshalText() ([]byte, error) {
	if s := c.String(); s != "??" {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: %#x", ErrInvalidCard, uint64(c))
}

// UnmarshalText decodes two character notation.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses two character notation such as "Kh" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rank := strings.IndexByte(rankChars, upper(s[0]))
	suit := strings.IndexByte(suitChars, lower(s[1]))
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses a space or comma separated list like "As Kd, 7c".
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for fixtures; it panics on bad input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// Hand is an unordered set of cards.
type Hand uint64

// NewHand builds a hand from cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the hand contains c.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns a 13-bit rank mask of the cards held in suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16(uint64(h)>>(uint(suit)*13)) & 0x1FFF
}

// Cards lists the cards in the hand, lowest bit first.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for m := uint64(h); m != 0; m &= m - 1 {
		cards = append(cards, Card(m&-m))
	}
	return cards
}

// String joins the cards with spaces.
func (h Hand) String() string {
	parts := make([]string, 0, h.CountCards())
	for _, c := range h.Cards() {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}
