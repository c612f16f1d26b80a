package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zazapalm3012/ito-gameweb/internal/codec"
	"github.com/zazapalm3012/ito-gameweb/internal/ledger"
	"github.com/zazapalm3012/ito-gameweb/ito"
)

// Room hosts a single game session with an actor model. All mutations
// arrive as events on one channel and are applied by one goroutine, so
// the engine underneath never sees concurrent callers from this layer.
type Room struct {
	ID   string
	Name string

	mu       sync.RWMutex
	game     *ito.Game
	conns    map[string]bool // playerID -> attached
	closed   bool
	stopOnce sync.Once
	recorded bool

	events chan Event
	done   chan struct{}

	emptySince time.Time

	// Callback to deliver encoded messages to a player's connection.
	send   func(playerID string, data []byte)
	ledger ledger.Service
}

// Event types for the actor message queue
type EventType int

const (
	EventAttach EventType = iota
	EventDetach
	EventJoin
	EventChangeTopic
	EventStartGame
	EventPlayCard
	EventNextRound
	EventClose
)

// Event represents a message to the room actor
type Event struct {
	Type     EventType
	PlayerID string
	Name     string
	Card     int
	Topic    string
	Response chan error
}

var ErrRoomClosed = errors.New("room closed")

// New creates a room around a fresh engine and starts its actor.
func New(id, name string, cfg ito.Config, sendFn func(playerID string, data []byte), ledgerService ledger.Service) (*Room, error) {
	game, err := ito.NewGame(cfg)
	if err != nil {
		return nil, err
	}
	r := &Room{
		ID:         id,
		Name:       name,
		game:       game,
		conns:      make(map[string]bool),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		emptySince: time.Now(),
		send:       sendFn,
		ledger:     ledgerService,
	}

	go r.run()

	log.Printf("[Room %s] Created (name=%q, max=%d)", id, name, cfg.MaxPlayers)
	return r, nil
}

// run is the main actor loop
func (r *Room) run() {
	for {
		select {
		case event := <-r.events:
			err := r.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-r.done:
			log.Printf("[Room %s] Actor stopped", r.ID)
			return
		}
	}
}

// handleEvent processes a single event
func (r *Room) handleEvent(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed && e.Type != EventClose {
		return ErrRoomClosed
	}

	switch e.Type {
	case EventAttach:
		return r.handleAttach(e.PlayerID, e.Name)
	case EventDetach:
		return r.handleDetach(e.PlayerID)
	case EventJoin:
		return r.handleJoin(e.PlayerID, e.Name)
	case EventChangeTopic:
		return r.handleChangeTopic(e.PlayerID, e.Topic)
	case EventStartGame:
		return r.handleStartGame(e.PlayerID)
	case EventPlayCard:
		return r.handlePlayCard(e.PlayerID, e.Card)
	case EventNextRound:
		return r.handleNextRound(e.PlayerID)
	case EventClose:
		r.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// handleAttach binds a websocket connection to the session. Members
// reattach in any state; newcomers go through the same lobby admission
// as an HTTP join.
func (r *Room) handleAttach(playerID, name string) error {
	if err := r.game.Join(playerID, name); err != nil {
		return err
	}
	r.conns[playerID] = true
	r.updateEmptySinceLocked(time.Now())
	log.Printf("[Room %s] Player %s attached, conns=%d", r.ID, playerID, len(r.conns))

	r.broadcastState()
	return nil
}

func (r *Room) handleDetach(playerID string) error {
	if !r.conns[playerID] {
		return nil
	}
	delete(r.conns, playerID)
	r.updateEmptySinceLocked(time.Now())

	// Lobby members drop out entirely; once the game has started the
	// membership record stays so hands and host checks keep working.
	removed := r.game.Leave(playerID)
	log.Printf("[Room %s] Player %s detached (removed=%v), conns=%d", r.ID, playerID, removed, len(r.conns))

	r.broadcastData(codec.PlayerLeftMessage(playerID))
	r.broadcastState()
	return nil
}

func (r *Room) handleJoin(playerID, name string) error {
	if err := r.game.Join(playerID, name); err != nil {
		return err
	}
	log.Printf("[Room %s] Player %s joined (%q)", r.ID, playerID, name)
	r.broadcastState()
	return nil
}

func (r *Room) handleChangeTopic(playerID, topic string) error {
	if err := r.game.ChangeTopic(playerID, topic); err != nil {
		return err
	}
	log.Printf("[Room %s] Topic changed by %s: %q", r.ID, playerID, topic)
	r.broadcastState()
	return nil
}

func (r *Room) handleStartGame(playerID string) error {
	if err := r.game.StartGame(playerID); err != nil {
		return err
	}
	log.Printf("[Room %s] Game started by %s", r.ID, playerID)
	r.broadcastState()
	return nil
}

func (r *Room) handlePlayCard(playerID string, card int) error {
	res, err := r.game.PlayCard(playerID, card)
	if err != nil {
		return err
	}
	log.Printf("[Room %s] Player %s played %d (misplay=%v, lives=%d)",
		r.ID, playerID, card, res.Misplay, res.Lives)

	r.broadcastData(codec.CardPlayedMessage(res))
	r.broadcastState()

	if res.GameEnded {
		r.recordResultLocked()
	}
	return nil
}

func (r *Room) handleNextRound(playerID string) error {
	if err := r.game.AdvanceRound(playerID); err != nil {
		return err
	}
	log.Printf("[Room %s] Next round dealt by %s", r.ID, playerID)
	r.broadcastState()
	return nil
}

// recordResultLocked persists the terminal outcome once.
func (r *Room) recordResultLocked() {
	if r.ledger == nil || r.recorded {
		return
	}
	r.recorded = true

	snap := r.game.Snapshot()
	outcome := ledger.OutcomeFailed
	if snap.Lives > 0 {
		outcome = ledger.OutcomeCleared
	}
	result := ledger.Result{
		GameID:          r.ID,
		Name:            r.Name,
		Topic:           snap.Topic,
		Outcome:         outcome,
		LivesRemaining:  snap.Lives,
		RoundsCompleted: snap.Round,
		EndedAt:         time.Now().UTC(),
	}
	for _, m := range snap.Members {
		result.Players = append(result.Players, ledger.PlayerResult{ID: m.ID, Name: m.Name})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.ledger.RecordResult(ctx, result); err != nil {
			log.Printf("[Room %s] Failed to record result: %v", r.ID, err)
		}
	}()
}

// broadcastState re-renders the session for every attached connection.
// Each viewer gets their own payload: hands are concealed per viewer.
func (r *Room) broadcastState() {
	snap := r.game.Snapshot()
	for playerID := range r.conns {
		data, err := codec.GameStateMessage(r.ID, r.Name, snap, playerID)
		if err != nil {
			log.Printf("[Room %s] Failed to encode state for %s: %v", r.ID, playerID, err)
			continue
		}
		r.send(playerID, data)
	}
}

func (r *Room) broadcastData(data []byte) {
	for playerID := range r.conns {
		r.send(playerID, data)
	}
}

// SubmitEvent sends an event to the actor and waits for the outcome.
func (r *Room) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Stop shuts down the room actor
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Room) stopLocked() {
	r.closed = true
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) updateEmptySinceLocked(now time.Time) {
	if len(r.conns) == 0 {
		if r.emptySince.IsZero() {
			r.emptySince = now
		}
		return
	}
	r.emptySince = time.Time{}
}

func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return true
	}
	if len(r.conns) > 0 {
		return false
	}
	if r.emptySince.IsZero() {
		return false
	}
	return time.Since(r.emptySince) >= ttl
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Snapshot returns current game state (thread-safe)
func (r *Room) Snapshot() ito.Snapshot {
	return r.game.Snapshot()
}

// Summary is the lobby listing view of a room.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HostID      string `json:"hostId"`
	RoundState  string `json:"roundState"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

func (r *Room) Summary() Summary {
	snap := r.game.Snapshot()
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		HostID:      snap.HostID,
		RoundState:  snap.State.String(),
		PlayerCount: len(snap.Members),
		MaxPlayers:  snap.MaxPlayers,
	}
}
