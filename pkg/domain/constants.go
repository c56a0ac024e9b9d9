package domain

import "time"

// Wire keywords. Matching is case-sensitive.
const (
	KeywordHello   = "hello"
	KeywordStepped = "stepped"
	KeywordHop     = "hop"
	KeywordJuggle  = "juggle"
	KeywordReach   = "reach"
	KeywordClear   = "clear"
	KeywordGoto    = "goto"
)

// Engine defaults.
const (
	DefaultCapacity      = 128
	DefaultDecay         = 700 * time.Millisecond
	DefaultPruneInterval = 10 * time.Second
	DefaultIdleDelay     = 50 * time.Millisecond
)
