package ito

import "fmt"

type Config struct {
	// Membership
	MaxPlayers int
	MinPlayers int

	// Deck value range (inclusive). MinCard stays >= 1: zero is the
	// shared "no card" marker on the wire and in the engine.
	MinCard int
	MaxCard int

	// Shared team lives at game start
	StartingLives int

	// Rounds per game
	MaxRounds int

	// Cards dealt to each player per round.
	// 0 means the classic rule: round N deals N cards per player.
	CardsPerRound int

	// RNG seed (0 => time-based)
	Seed int64
}

// DefaultConfig matches the classic Ito ruleset: cards 1..100, three
// rounds of growing hands, three shared lives.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:    8,
		MinPlayers:    2,
		MinCard:       1,
		MaxCard:       100,
		StartingLives: 3,
		MaxRounds:     3,
	}
}

func (c Config) validate() error {
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("MaxPlayers must be > 0")
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("MinPlayers must be >= 2")
	}
	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must be <= MaxPlayers")
	}
	if c.MinCard < 1 {
		return fmt.Errorf("MinCard must be >= 1")
	}
	if c.MinCard >= c.MaxCard {
		return fmt.Errorf("invalid card range: min=%d max=%d", c.MinCard, c.MaxCard)
	}
	if c.StartingLives <= 0 {
		return fmt.Errorf("StartingLives must be > 0")
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("MaxRounds must be > 0")
	}
	if c.CardsPerRound < 0 {
		return fmt.Errorf("CardsPerRound must be >= 0")
	}
	// Every deal must fit in the deck, even the largest one.
	maxHand := c.CardsPerRound
	if maxHand == 0 {
		maxHand = c.MaxRounds
	}
	deckSize := c.MaxCard - c.MinCard + 1
	if c.MaxPlayers*maxHand > deckSize {
		return fmt.Errorf("deck too small: %d players x %d cards > %d values",
			c.MaxPlayers, maxHand, deckSize)
	}
	return nil
}

// handSize returns the number of cards dealt to each player in a round.
func (c Config) handSize(round int) int {
	if c.CardsPerRound > 0 {
		return c.CardsPerRound
	}
	return round
}
