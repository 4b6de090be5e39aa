package domain

type SessionID string

// SessionInfo is a read-only view of the current session for APIs.
type SessionInfo struct {
	ID        SessionID      `json:"session_id"`
	Started   bool           `json:"started"`
	Completed int            `json:"sessions_completed"`
	Total     int            `json:"sessions_total"`
	Players   []PlayerStatus `json:"players"`
}

// PlayerStatus is a Player plus the liveness of its connection.
type PlayerStatus struct {
	Player
	Connected bool `json:"connected"`
}
