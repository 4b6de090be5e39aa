// Package protocol holds the line-oriented wire format shared by the broker
// and its peers.
package protocol

const (
	FieldSep = "/"
	PartSep  = "#"
	ListSep  = "~"
	EndMark  = "%"

	ServerMarker = "server"
	ClientMarker = "client"

	// EndOfPlayers closes the roster listing of the join handshake and is
	// echoed back by the joining peer.
	EndOfPlayers = "END_OF_PLAYERS"

	// BrokerOrigin is the sender id of notices the broker originates itself.
	BrokerOrigin = -1
)
