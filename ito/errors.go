package ito

import "errors"

var (
	ErrGameFull         = errors.New("game is full")
	ErrInvalidState     = errors.New("invalid game state for this action")
	ErrNotHost          = errors.New("only the host may do this")
	ErrNotMember        = errors.New("player is not a member of this game")
	ErrTopicRequired    = errors.New("a topic must be set")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrCardNotInHand    = errors.New("card is not in your hand")
)
