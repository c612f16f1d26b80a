package ito

type MemberSnapshot struct {
	ID     string
	Name   string
	Hand   []int
	Played bool
}

type Snapshot struct {
	HostID     string
	MaxPlayers int

	State      State
	Round      int
	Topic      string
	Lives      int
	Discard    []int
	LastPlayed int

	Members []MemberSnapshot
}

// Snapshot returns a consistent deep copy of the session state. Hands are
// copied in full here; per-viewer concealment happens at serialization.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		HostID:     g.hostID,
		MaxPlayers: g.cfg.MaxPlayers,
		State:      g.state,
		Round:      g.round,
		Topic:      g.topic,
		Lives:      g.lives,
		Discard:    append([]int{}, g.discard...),
		LastPlayed: g.lastPlayed,
	}
	for _, m := range g.members {
		s.Members = append(s.Members, MemberSnapshot{
			ID:     m.id,
			Name:   m.name,
			Hand:   append([]int{}, m.hand...),
			Played: m.played,
		})
	}
	return s
}
