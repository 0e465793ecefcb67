package state

import "time"

// FlowState is a single step of a multi-step conversation. Each flow
// defines its own struct carrying the data collected so far; handlers
// dispatch on the concrete type.
type FlowState interface {
	// FlowName identifies the flow for logging.
	FlowName() string
}

// Session is the single conversation slot a user may hold. Starting a
// new flow replaces whatever was there before.
type Session struct {
	Flow      FlowState
	CreatedAt time.Time
}
