package poker

import (
	"math/bits"
)

// HandRank is the strength of a best five card hand. Higher values are stronger and
// equal values tie. The category sits above bit 20 and the five deciding ranks follow
// in four bit nibbles, most significant first.
type HandRank uint32

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var handTypeNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (t HandType) String() string {
	if int(t) < len(handTypeNames) {
		return handTypeNames[t]
	}
	return "Unknown"
}

// Type returns the category of the hand (pair, flush, etc.).
func (hr HandRank) Type() HandType {
	return HandType(hr >> 20)
}

// String returns a human-readable hand description.
func (hr HandRank) String() string {
	if hr == 0 {
		return "Unknown"
	}
	return hr.Type().String()
}

func pack(t HandType, ranks ...uint8) HandRank {
	v := HandRank(t) << 20
	shift := 16
	for _, r := range ranks {
		if shift < 0 {
			break
		}
		v |= HandRank(r) << shift
		shift -= 4
	}
	return v
}

// Evaluate returns the best five card hand found in h, which must hold between five
// and seven cards. It returns 0 for any other size.
func Evaluate(h Hand) HandRank {
	n := h.CountCards()
	if n < 5 || n > 7 {
		return 0
	}
	return evaluate(h)
}

func evaluate(h Hand) HandRank {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := range uint8(4) {
		suitMasks[suit] = h.GetSuitMask(suit)
		rankMask |= suitMasks[suit]
	}

	// With at most seven cards a flush excludes quads and full houses, so it can be
	// decided before the rank multiplicities.
	for _, suitMask := range suitMasks {
		if bits.OnesCount16(suitMask) < 5 {
			continue
		}
		if high, ok := straightHigh(suitMask); ok {
			return pack(StraightFlush, high)
		}
		return pack(Flush, topRanks(suitMask, 5)...)
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quads := s0 & s1 & s2 & s3
	threes := ((s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)) &^ quads
	pairs := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ (threes | quads)

	if quads != 0 {
		q := highest(quads)
		return pack(FourOfAKind, q, highest(rankMask&^bit(q)))
	}

	if threes != 0 {
		t := highest(threes)
		if rest := (pairs | threes) &^ bit(t); rest != 0 {
			return pack(FullHouse, t, highest(rest))
		}
	}

	if high, ok := straightHigh(rankMask); ok {
		return pack(Straight, high)
	}

	if threes != 0 {
		t := highest(threes)
		return pack(ThreeOfAKind, append([]uint8{t}, topRanks(rankMask&^bit(t), 2)...)...)
	}

	if pairs != 0 {
		hi := highest(pairs)
		if lowPairs := pairs &^ bit(hi); lowPairs != 0 {
			lo := highest(lowPairs)
			return pack(TwoPair, hi, lo, highest(rankMask&^(bit(hi)|bit(lo))))
		}
		return pack(Pair, append([]uint8{hi}, topRanks(rankMask&^bit(hi), 3)...)...)
	}

	return pack(HighCard, topRanks(rankMask, 5)...)
}

func bit(rank uint8) uint16 {
	return 1 << rank
}

// highest returns the highest rank present in a non-empty mask.
func highest(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}

// topRanks returns the n highest ranks in mask, descending.
func topRanks(mask uint16, n int) []uint8 {
	ranks := make([]uint8, 0, n)
	for mask != 0 && len(ranks) < n {
		r := highest(mask)
		ranks = append(ranks, r)
		mask &^= bit(r)
	}
	return ranks
}

// straightHigh returns the top rank of the best straight in mask. The wheel (A-2-3-4-5)
// counts as five high and only wins when no longer run exists.
func straightHigh(mask uint16) (uint8, bool) {
	mask &= 0x1FFF
	if seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4); seq != 0 {
		return highest(seq) + 4, true
	}
	const wheel = 0x100F // Ace + 2-3-4-5
	if mask&wheel == wheel {
		return Five, true
	}
	return 0, false
}

// CompareHands compares two hands and returns 1 if a wins, -1 if b wins, 0 for tie
func CompareHands(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
