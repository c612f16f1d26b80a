package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zazapalm3012/ito-gameweb/ito"
)

// Server -> client message kinds.
const (
	ServerGameStateUpdate      = "GAME_STATE_UPDATE"
	ServerError                = "ERROR"
	ServerPlayerLeft           = "PLAYER_LEFT"
	ServerCardPlayedValidation = "CARD_PLAYED_VALIDATION"
)

// Client -> server message kinds (closed set).
const (
	ClientPlayCard    = "PLAY_CARD"
	ClientChangeTopic = "CHANGE_TOPIC"
)

var ErrMalformedMessage = errors.New("malformed message")

// ClientMessage is the decoded form of an inbound action. Unknown kinds
// and shape violations are rejected here, before any game state is
// touched.
type ClientMessage struct {
	Type      string `json:"type"`
	GameID    string `json:"gameId,omitempty"`
	PlayerID  string `json:"playerId,omitempty"`
	CardValue int    `json:"cardValue,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, ErrMalformedMessage
	}
	switch msg.Type {
	case ClientPlayCard:
		if msg.CardValue == 0 {
			return ClientMessage{}, ErrMalformedMessage
		}
	case ClientChangeTopic:
		// Topic content is validated by the engine.
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, msg.Type)
	}
	return msg, nil
}

// GameStatePayload is the full session snapshot as serialized to one
// viewer.
type GameStatePayload struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	HostID             string          `json:"hostId"`
	MaxPlayers         int             `json:"maxPlayers"`
	CurrentRound       int             `json:"currentRound"`
	RoundState         string          `json:"roundState"`
	CurrentTopic       string          `json:"currentTopic"`
	TeamLivesRemaining int             `json:"teamLivesRemaining"`
	DiscardPile        []int           `json:"discardPile"`
	LastPlayedCard     int             `json:"lastPlayedCard"`
	Players            []PlayerPayload `json:"players"`
}

// PlayerPayload hides everything but hand size from other viewers: the
// concealed numbers are the whole game.
type PlayerPayload struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Hand                   []int  `json:"hand"`
	HandCount              int    `json:"handCount"`
	HasPlayedCardThisRound bool   `json:"hasPlayedCardThisRound"`
}

type serverEnvelope struct {
	Type      string            `json:"type"`
	Payload   *GameStatePayload `json:"payload,omitempty"`
	Message   string            `json:"message,omitempty"`
	PlayerID  string            `json:"playerId,omitempty"`
	CardValue int               `json:"cardValue,omitempty"`
	IsMisplay bool              `json:"isMisplay,omitempty"`
	LivesLost int               `json:"livesLost,omitempty"`
}

// GameStatePayloadFor builds the per-viewer payload for one connection.
func GameStatePayloadFor(id, name string, snap ito.Snapshot, viewerID string) GameStatePayload {
	p := GameStatePayload{
		ID:                 id,
		Name:               name,
		HostID:             snap.HostID,
		MaxPlayers:         snap.MaxPlayers,
		CurrentRound:       snap.Round,
		RoundState:         snap.State.String(),
		CurrentTopic:       snap.Topic,
		TeamLivesRemaining: snap.Lives,
		DiscardPile:        snap.Discard,
		LastPlayedCard:     snap.LastPlayed,
	}
	if p.DiscardPile == nil {
		p.DiscardPile = []int{}
	}
	p.Players = make([]PlayerPayload, 0, len(snap.Members))
	for _, m := range snap.Members {
		pp := PlayerPayload{
			ID:                     m.ID,
			Name:                   m.Name,
			Hand:                   []int{},
			HandCount:              len(m.Hand),
			HasPlayedCardThisRound: m.Played,
		}
		if m.ID == viewerID {
			pp.Hand = append(pp.Hand, m.Hand...)
		}
		p.Players = append(p.Players, pp)
	}
	return p
}

// GameStateMessage encodes a GAME_STATE_UPDATE for one viewer.
func GameStateMessage(id, name string, snap ito.Snapshot, viewerID string) ([]byte, error) {
	payload := GameStatePayloadFor(id, name, snap, viewerID)
	return json.Marshal(serverEnvelope{
		Type:    ServerGameStateUpdate,
		Payload: &payload,
	})
}

// ErrorMessage encodes a targeted ERROR for the originating connection.
func ErrorMessage(msg string) []byte {
	data, _ := json.Marshal(serverEnvelope{
		Type:    ServerError,
		Message: msg,
	})
	return data
}

// PlayerLeftMessage announces a disconnect to the remaining connections.
func PlayerLeftMessage(playerID string) []byte {
	data, _ := json.Marshal(serverEnvelope{
		Type:     ServerPlayerLeft,
		PlayerID: playerID,
	})
	return data
}

// CardPlayedMessage describes the outcome of the most recent play,
// including any life cost. Broadcast to the whole session.
func CardPlayedMessage(res ito.PlayResult) []byte {
	msg := fmt.Sprintf("%s played %d. Correct!", res.PlayerName, res.Card)
	if res.Misplay {
		msg = fmt.Sprintf("%s played %d. Misplay! Team lost a life (%d remaining)",
			res.PlayerName, res.Card, res.Lives)
	}
	data, _ := json.Marshal(serverEnvelope{
		Type:      ServerCardPlayedValidation,
		Message:   msg,
		PlayerID:  res.PlayerID,
		CardValue: res.Card,
		IsMisplay: res.Misplay,
		LivesLost: res.LivesLost,
	})
	return data
}
