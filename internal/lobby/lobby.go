package lobby

import (
	"errors"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zazapalm3012/ito-gameweb/internal/ledger"
	"github.com/zazapalm3012/ito-gameweb/internal/room"
	"github.com/zazapalm3012/ito-gameweb/ito"
)

// SendFunc delivers an encoded message to one player's connection in
// one game. The game id scopes delivery: player ids are only unique
// within a session.
type SendFunc func(gameID, playerID string, data []byte)

var (
	ErrNameRequired = errors.New("game name is required")
	ErrHostRequired = errors.New("host id is required")
)

const defaultIdleTTLSeconds = 60

// Lobby manages all rooms and sweeps the abandoned ones.
type Lobby struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	cfg     ito.Config
	ledger  ledger.Service
	idleTTL time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a lobby and starts its idle sweeper.
func New(cfg ito.Config, ledgerService ledger.Service) *Lobby {
	l := &Lobby{
		rooms:   make(map[string]*room.Room),
		cfg:     cfg,
		ledger:  ledgerService,
		idleTTL: idleTTLFromEnv(),
		done:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Create registers a new room with the caller as host.
func (l *Lobby) Create(name, hostID, hostName string, send SendFunc) (*room.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(hostID) == "" {
		return nil, ErrHostRequired
	}

	id := uuid.NewString()
	r, err := room.New(id, name, l.cfg, func(playerID string, data []byte) {
		send(id, playerID, data)
	}, l.ledger)
	if err != nil {
		return nil, err
	}
	if err := r.SubmitEvent(room.Event{Type: room.EventJoin, PlayerID: hostID, Name: hostName}); err != nil {
		r.Stop()
		return nil, err
	}

	l.mu.Lock()
	l.rooms[id] = r
	l.mu.Unlock()

	log.Printf("[Lobby] Room %s created by %s (%q)", id, hostID, name)
	return r, nil
}

// Get returns a room by ID (nil when absent).
func (l *Lobby) Get(id string) *room.Room {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rooms[id]
}

// List returns summaries of all rooms, newest ids last for a stable order.
func (l *Lobby) List() []room.Summary {
	l.mu.RLock()
	rooms := make([]*room.Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.RUnlock()

	summaries := make([]room.Summary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, r.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// Remove stops a room and drops it from the registry.
func (l *Lobby) Remove(id string) {
	l.mu.Lock()
	r := l.rooms[id]
	delete(l.rooms, id)
	l.mu.Unlock()

	if r != nil {
		r.Stop()
		log.Printf("[Lobby] Room %s removed", id)
	}
}

// Close stops the sweeper and every room.
func (l *Lobby) Close() {
	l.stopOnce.Do(func() {
		close(l.done)
	})

	l.mu.Lock()
	rooms := make([]*room.Room, 0, len(l.rooms))
	for id, r := range l.rooms {
		rooms = append(rooms, r)
		delete(l.rooms, id)
	}
	l.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
}

func (l *Lobby) janitor() {
	ticker := time.NewTicker(l.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweepIdle()
		case <-l.done:
			return
		}
	}
}

func (l *Lobby) sweepIdle() {
	l.mu.RLock()
	var idle []string
	for id, r := range l.rooms {
		if r.IsIdleFor(l.idleTTL) {
			idle = append(idle, id)
		}
	}
	l.mu.RUnlock()

	for _, id := range idle {
		log.Printf("[Lobby] Sweeping idle room %s (ttl=%s)", id, l.idleTTL)
		l.Remove(id)
	}
}

func idleTTLFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("ROOM_IDLE_TTL"))
	if raw == "" {
		return defaultIdleTTLSeconds * time.Second
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultIdleTTLSeconds * time.Second
	}
	return time.Duration(n) * time.Second
}
