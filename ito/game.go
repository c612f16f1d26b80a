package ito

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Game is the authoritative rules engine for one Ito session. All rules
// are re-validated here regardless of what the caller claims; the actor
// layer on top only serializes access and moves bytes.
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	hostID string
	topic  string

	state      State
	round      int
	lives      int
	discard    []int
	lastPlayed int

	// members in join order; index 0 is the earliest remaining member
	members []*member
}

type member struct {
	id     string
	name   string
	hand   []int
	played bool // has played at least one card this round
}

// PlayResult describes the outcome of a single card play.
type PlayResult struct {
	PlayerID   string
	PlayerName string
	Card       int
	Misplay    bool
	LivesLost  int
	Lives      int
	RoundEnded bool
	GameEnded  bool
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		state: StateLobby,
	}, nil
}

func (g *Game) memberByID(id string) *member {
	for _, m := range g.members {
		if m.id == id {
			return m
		}
	}
	return nil
}

// Join adds a member while the game is in the lobby. Joining with an id
// that is already a member succeeds in any state (no duplicate
// membership); the stored display name is refreshed if one is given.
func (g *Game) Join(id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m := g.memberByID(id); m != nil {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			m.name = trimmed
		}
		return nil
	}
	if g.state != StateLobby {
		return ErrInvalidState
	}
	if len(g.members) >= g.cfg.MaxPlayers {
		return ErrGameFull
	}

	g.members = append(g.members, &member{id: id, name: strings.TrimSpace(name)})
	if g.hostID == "" {
		g.hostID = id
	}
	return nil
}

// ChangeTopic sets the shared theme label. Host-only, lobby-only; an
// empty value clears the topic, StartGame alone requires one.
func (g *Game) ChangeTopic(callerID, topic string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if callerID != g.hostID {
		return ErrNotHost
	}
	if g.state != StateLobby {
		return ErrInvalidState
	}
	g.topic = strings.TrimSpace(topic)
	return nil
}

// StartGame deals round one and moves the session into play.
func (g *Game) StartGame(callerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if callerID != g.hostID {
		return ErrNotHost
	}
	if g.state != StateLobby {
		return ErrInvalidState
	}
	if g.topic == "" {
		return ErrTopicRequired
	}
	if len(g.members) < g.cfg.MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.round = 1
	g.lives = g.cfg.StartingLives
	g.dealRoundLocked()
	g.state = StatePlaying
	return nil
}

// dealRoundLocked deals a fresh deck for the current round and clears
// the per-round bookkeeping. Caller holds g.mu.
func (g *Game) dealRoundLocked() {
	hands := dealHands(g.rng, len(g.members), g.cfg.handSize(g.round), g.cfg.MinCard, g.cfg.MaxCard)
	for i, m := range g.members {
		m.hand = hands[i]
		m.played = false
	}
	g.discard = nil
	g.lastPlayed = NoCardPlayed
}

// PlayCard validates and applies a card play by callerID.
//
// A play is a misplay when any other member still holds a strictly lower
// value; a misplay costs one shared life (floor at zero). Correct plays
// are always accepted. The round ends when lives reach zero or every hand
// is empty; a round end with no lives left, or after the final round,
// converges straight to GameEnd.
func (g *Game) PlayCard(callerID string, card int) (PlayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m := g.memberByID(callerID)
	if m == nil {
		return PlayResult{}, ErrNotMember
	}
	if g.state != StatePlaying {
		return PlayResult{}, ErrInvalidState
	}

	idx := -1
	for i, v := range m.hand {
		if v == card {
			idx = i
			break
		}
	}
	if idx < 0 {
		return PlayResult{}, ErrCardNotInHand
	}

	misplay := false
	for _, other := range g.members {
		if other == m {
			continue
		}
		for _, v := range other.hand {
			if v < card {
				misplay = true
				break
			}
		}
		if misplay {
			break
		}
	}

	m.hand = append(m.hand[:idx], m.hand[idx+1:]...)
	m.played = true
	g.discard = append(g.discard, card)
	g.lastPlayed = card

	res := PlayResult{
		PlayerID:   m.id,
		PlayerName: m.name,
		Card:       card,
		Misplay:    misplay,
	}
	if misplay && g.lives > 0 {
		g.lives--
		res.LivesLost = 1
	}
	res.Lives = g.lives

	if g.lives == 0 || g.allHandsEmptyLocked() {
		res.RoundEnded = true
		if g.lives == 0 || g.round >= g.cfg.MaxRounds {
			g.state = StateGameEnd
			res.GameEnded = true
		} else {
			g.state = StateRoundEnd
		}
	}
	return res, nil
}

func (g *Game) allHandsEmptyLocked() bool {
	for _, m := range g.members {
		if len(m.hand) > 0 {
			return false
		}
	}
	return true
}

// AdvanceRound deals the next round. Host-only, only from RoundEnd; the
// terminal conditions (no lives, final round) never reach RoundEnd, so
// the state check is the whole guard.
func (g *Game) AdvanceRound(callerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if callerID != g.hostID {
		return ErrNotHost
	}
	if g.state != StateRoundEnd {
		return ErrInvalidState
	}

	g.round++
	g.dealRoundLocked()
	g.state = StatePlaying
	return nil
}

// Leave removes a member while the game is still in the lobby; once the
// game has started the membership record (hand, played flag) stays so the
// deck partition holds. If the departing member hosted a lobby, the
// earliest remaining member is promoted. Returns whether the membership
// record was removed.
func (g *Game) Leave(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLobby {
		return false
	}
	for i, m := range g.members {
		if m.id != id {
			continue
		}
		g.members = append(g.members[:i], g.members[i+1:]...)
		if g.hostID == id {
			g.hostID = ""
			if len(g.members) > 0 {
				g.hostID = g.members[0].id
			}
		}
		return true
	}
	return false
}

// MemberCount reports current membership (thread-safe).
func (g *Game) MemberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}
