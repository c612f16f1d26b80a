package ito

import (
	"math/rand"
	"sort"
)

// dealHands shuffles the distinct values [minCard, maxCard] and deals
// handSize cards to each of n players. Hands are pairwise disjoint and
// sorted ascending. The caller guarantees n*handSize fits the range.
func dealHands(rng *rand.Rand, n, handSize, minCard, maxCard int) [][]int {
	deck := make([]int, 0, maxCard-minCard+1)
	for v := minCard; v <= maxCard; v++ {
		deck = append(deck, v)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	hands := make([][]int, n)
	for i := 0; i < n; i++ {
		hand := make([]int, handSize)
		copy(hand, deck[i*handSize:(i+1)*handSize])
		sort.Ints(hand)
		hands[i] = hand
	}
	return hands
}
