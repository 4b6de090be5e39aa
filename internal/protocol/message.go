package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrFieldCount = errors.New("wrong field count")
	ErrBadSender  = errors.New("bad sender id")
)

// Message is one parsed wire line.
type Message struct {
	Marker string
	Sender int
	// Keyword keeps the raw action text, Action its parsed form.
	Keyword string
	Action  Action
	Value   string
}

// Parse reads the first four fields of a line. Anything after the end
// marker is dropped.
func Parse(line string) (Message, error) {
	body := line
	if i := strings.Index(body, EndMark); i >= 0 {
		body = body[:i]
	}
	body = strings.TrimRight(strings.TrimSpace(body), FieldSep)

	fields := strings.Split(body, FieldSep)
	if len(fields) != 4 {
		return Message{}, fmt.Errorf("%w: got %d", ErrFieldCount, len(fields))
	}
	sender, err := strconv.Atoi(fields[1])
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q", ErrBadSender, fields[1])
	}
	return Message{
		Marker:  fields[0],
		Sender:  sender,
		Keyword: fields[2],
		Action:  ParseAction(fields[2]),
		Value:   fields[3],
	}, nil
}

// SenderOf extracts the sender id of a peer line even when the rest of the
// line is malformed. ok is false if the sender is not recognizable.
func SenderOf(line string) (int, bool) {
	fields := strings.SplitN(line, FieldSep, 3)
	if len(fields) < 2 || fields[0] != ClientMarker {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, false
	}
	return id, true
}

// PeerPrefix is the prefix every line sent by peer id starts with.
func PeerPrefix(id int) string {
	return ClientMarker + FieldSep + strconv.Itoa(id) + FieldSep
}

// ServerPrefix starts every line the broker broadcasts.
func ServerPrefix() string {
	return ServerMarker + FieldSep
}

// Pair formats an action/value message without envelope.
func Pair(a Action, value string) string {
	return a.String() + FieldSep + value
}

// Envelope wraps msg for delivery. A two-field message gets the broker
// origin prepended; every result ends with the end marker.
func Envelope(msg string) string {
	msg = strings.TrimRight(msg, "\r\n")
	if strings.Count(strings.TrimSuffix(msg, EndMark), FieldSep) == 1 {
		msg = ServerMarker + FieldSep + strconv.Itoa(BrokerOrigin) + FieldSep + msg
	}
	if !strings.HasSuffix(msg, EndMark) {
		msg += EndMark
	}
	return msg
}

// Relay formats an action of sender as it is broadcast to every peer.
func Relay(sender int, keyword, value string) string {
	return Envelope(strings.Join([]string{ServerMarker, strconv.Itoa(sender), keyword, value}, FieldSep))
}

// JoinParts joins auxiliary parts of a value.
func JoinParts(parts ...string) string {
	return strings.Join(parts, PartSep)
}

// Notice formats a broker-originated notice.
func Notice(a Action, value string) string {
	return Relay(BrokerOrigin, a.String(), value)
}
