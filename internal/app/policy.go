package app

import "github.com/Wagner-Erik/ResArcana-sub001/internal/core"

type SendFailureAction int

const (
	Ignore SendFailureAction = iota
	Disconnect
)

// Policy decides what happens to a recipient whose outbound path refused a
// broadcast frame.
type Policy interface {
	OnSendFailure(rec *core.Record) SendFailureAction
}

// SimplePolicy keeps broadcasts fire-and-forget.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(*core.Record) SendFailureAction { return Ignore }

// KickPolicy disconnects every recipient that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnSendFailure(*core.Record) SendFailureAction { return Disconnect }
