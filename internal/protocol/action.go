package protocol

// Action is the closed set of action keywords the broker knows about.
type Action int

const (
	ActionUnknown Action = iota

	// lifecycle
	ActionSetName
	ActionSetReady
	ActionGameFinished
	ActionDisconnect

	// gameplay, relayed verbatim
	ActionPerformed
	ActionResume
	ActionShuffle
	ActionDraft
	ActionDealCards
	ActionNextRound
	ActionVoteNextRound
	ActionIncomeDone
	ActionAttack
	ActionControl

	// broker-originated
	ActionAddPlayer
	ActionStartGame
)

var actionNames = map[Action]string{
	ActionSetName:       "setName",
	ActionSetReady:      "setReady",
	ActionGameFinished:  "gameFinished",
	ActionDisconnect:    "disconnect",
	ActionPerformed:     "actionPerformed",
	ActionResume:        "resume",
	ActionShuffle:       "shuffle",
	ActionDraft:         "draft",
	ActionDealCards:     "dealCards",
	ActionNextRound:     "nextRound",
	ActionVoteNextRound: "voteNextRound",
	ActionIncomeDone:    "incomeDone",
	ActionAttack:        "attack",
	ActionControl:       "control",
	ActionAddPlayer:     "addPlayer",
	ActionStartGame:     "startGame",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func ParseAction(s string) Action {
	if a, ok := actionsByName[s]; ok {
		return a
	}
	return ActionUnknown
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// IsGameplay reports whether a is relayed without interpretation.
func (a Action) IsGameplay() bool {
	return a >= ActionPerformed && a <= ActionControl
}

// FromPeer reports whether peers may send a.
func (a Action) FromPeer() bool {
	return a >= ActionSetName && a <= ActionControl
}
