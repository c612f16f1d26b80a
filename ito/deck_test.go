package ito

import (
	"math/rand"
	"sort"
	"testing"
)

func TestDealHands_DisjointSortedInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	hands := dealHands(rng, 4, 3, 1, 100)

	if len(hands) != 4 {
		t.Fatalf("expected 4 hands, got %d", len(hands))
	}
	seen := make(map[int]bool)
	for i, hand := range hands {
		if len(hand) != 3 {
			t.Fatalf("hand %d: expected 3 cards, got %d", i, len(hand))
		}
		if !sort.IntsAreSorted(hand) {
			t.Fatalf("hand %d not sorted: %v", i, hand)
		}
		for _, v := range hand {
			if v < 1 || v > 100 {
				t.Fatalf("hand %d: value %d out of range", i, v)
			}
			if seen[v] {
				t.Fatalf("value %d dealt twice", v)
			}
			seen[v] = true
		}
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 distinct values, got %d", len(seen))
	}
}

func TestDealHands_SeedDeterminism(t *testing.T) {
	a := dealHands(rand.New(rand.NewSource(7)), 3, 2, 1, 20)
	b := dealHands(rand.New(rand.NewSource(7)), 3, 2, 1, 20)

	for i := range a {
		if len(a[i]) != len(b[i]) {
			t.Fatalf("hand %d length mismatch", i)
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("hand %d differs at %d: %d vs %d", i, j, a[i][j], b[i][j])
			}
		}
	}
}

func TestDealHands_TightDeck(t *testing.T) {
	// Exactly enough values for everyone.
	rng := rand.New(rand.NewSource(1))
	hands := dealHands(rng, 2, 3, 1, 6)

	seen := make(map[int]bool)
	for _, hand := range hands {
		for _, v := range hand {
			seen[v] = true
		}
	}
	for v := 1; v <= 6; v++ {
		if !seen[v] {
			t.Fatalf("value %d missing from tight deal", v)
		}
	}
}
