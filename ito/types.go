package ito

// State 游戏阶段
type State byte

const (
	StateLobby    State = 0
	StatePlaying  State = 1
	StateRoundEnd State = 2
	StateGameEnd  State = 3
)

var StateDictionary = map[State]string{
	StateLobby:    "Lobby",
	StatePlaying:  "Playing",
	StateRoundEnd: "RoundEnd",
	StateGameEnd:  "GameEnd",
}

func (s State) String() string {
	if name, ok := StateDictionary[s]; ok {
		return name
	}
	return "Unknown"
}

// NoCardPlayed is the LastPlayed marker before any card hits the pile.
const NoCardPlayed = 0
