package codec

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/zazapalm3012/ito-gameweb/ito"
)

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"PLAY_CARD","gameId":"g1","playerId":"p1","cardValue":42}`))
	if err != nil {
		t.Fatalf("decode play: %v", err)
	}
	if msg.Type != ClientPlayCard || msg.CardValue != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}

	msg, err = DecodeClientMessage([]byte(`{"type":"CHANGE_TOPIC","topic":"loud sounds"}`))
	if err != nil {
		t.Fatalf("decode topic: %v", err)
	}
	if msg.Type != ClientChangeTopic || msg.Topic != "loud sounds" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	cases := []string{
		`not json`,
		`{"type":"FIREBALL"}`,
		`{"type":""}`,
		`{"type":"PLAY_CARD"}`,
		`{"type":"PLAY_CARD","cardValue":0}`,
	}
	for _, raw := range cases {
		if _, err := DecodeClientMessage([]byte(raw)); !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("%s: expected ErrMalformedMessage, got %v", raw, err)
		}
	}
}

func testSnapshot() ito.Snapshot {
	return ito.Snapshot{
		HostID:     "p1",
		MaxPlayers: 8,
		State:      ito.StatePlaying,
		Round:      2,
		Topic:      "spicy food",
		Lives:      2,
		Discard:    []int{4, 9},
		LastPlayed: 9,
		Members: []ito.MemberSnapshot{
			{ID: "p1", Name: "Hana", Hand: []int{12, 77}, Played: true},
			{ID: "p2", Name: "Ben", Hand: []int{31}, Played: false},
		},
	}
}

func TestGameStatePayloadFor_ConcealsOtherHands(t *testing.T) {
	payload := GameStatePayloadFor("g1", "friday", testSnapshot(), "p2")

	if payload.ID != "g1" || payload.Name != "friday" {
		t.Fatalf("identity not carried: %+v", payload)
	}
	if payload.RoundState != "Playing" || payload.CurrentRound != 2 {
		t.Fatalf("round fields wrong: %+v", payload)
	}
	if payload.TeamLivesRemaining != 2 || payload.LastPlayedCard != 9 {
		t.Fatalf("shared fields wrong: %+v", payload)
	}

	for _, p := range payload.Players {
		switch p.ID {
		case "p2":
			if len(p.Hand) != 1 || p.Hand[0] != 31 || p.HandCount != 1 {
				t.Fatalf("viewer's own hand wrong: %+v", p)
			}
		case "p1":
			if len(p.Hand) != 0 {
				t.Fatalf("other hand leaked: %+v", p)
			}
			if p.HandCount != 2 || !p.HasPlayedCardThisRound {
				t.Fatalf("other's public fields wrong: %+v", p)
			}
		}
	}
}

func TestGameStateMessage_WireShape(t *testing.T) {
	data, err := GameStateMessage("g1", "friday", testSnapshot(), "p1")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env struct {
		Type    string           `json:"type"`
		Payload GameStatePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != ServerGameStateUpdate {
		t.Fatalf("unexpected type %q", env.Type)
	}
	if env.Payload.CurrentTopic != "spicy food" {
		t.Fatalf("payload not carried: %+v", env.Payload)
	}
}

func TestCardPlayedMessage(t *testing.T) {
	data := CardPlayedMessage(ito.PlayResult{
		PlayerID:   "p1",
		PlayerName: "Hana",
		Card:       42,
		Misplay:    false,
		Lives:      3,
	})
	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env["type"] != ServerCardPlayedValidation {
		t.Fatalf("unexpected type %v", env["type"])
	}
	if msg, _ := env["message"].(string); !strings.Contains(msg, "Correct") {
		t.Fatalf("expected correct-play message, got %q", msg)
	}

	data = CardPlayedMessage(ito.PlayResult{
		PlayerID:   "p1",
		PlayerName: "Hana",
		Card:       42,
		Misplay:    true,
		LivesLost:  1,
		Lives:      2,
	})
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env["isMisplay"] != true {
		t.Fatalf("misplay flag missing: %v", env)
	}
	if msg, _ := env["message"].(string); !strings.Contains(msg, "Misplay") {
		t.Fatalf("expected misplay message, got %q", msg)
	}
}

func TestErrorAndPlayerLeftMessages(t *testing.T) {
	var env map[string]any
	if err := json.Unmarshal(ErrorMessage("boom"), &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env["type"] != ServerError || env["message"] != "boom" {
		t.Fatalf("unexpected error envelope: %v", env)
	}

	if err := json.Unmarshal(PlayerLeftMessage("p9"), &env); err != nil {
		t.Fatalf("unmarshal left: %v", err)
	}
	if env["type"] != ServerPlayerLeft || env["playerId"] != "p9" {
		t.Fatalf("unexpected left envelope: %v", env)
	}
}
