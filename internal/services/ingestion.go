package services

import (
	"fmt"

	"github.com/filmchain/track-shorts/internal/models"
)

type ingestionState int

const (
	statePending ingestionState = iota
	stateStatsFetched
	stateValidated
	stateRejected
	stateCommitted
	stateRolledBack
)

func (s ingestionState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateStatsFetched:
		return "stats_fetched"
	case stateValidated:
		return "validated"
	case stateRejected:
		return "rejected"
	case stateCommitted:
		return "committed"
	case stateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("ingestionState(%d)", int(s))
	}
}

// Every state before Committed may fall through to RolledBack; Committed and
// RolledBack are terminal.
var ingestionTransitions = map[ingestionState][]ingestionState{
	statePending:      {stateStatsFetched, stateRolledBack},
	stateStatsFetched: {stateValidated, stateRejected, stateRolledBack},
	stateValidated:    {stateCommitted, stateRolledBack},
	stateRejected:     {stateRolledBack},
}

// ingestion tracks one placeholder row from insert until it is either
// committed or removed again.
type ingestion struct {
	state ingestionState
	short *models.Short
}

func newIngestion(short *models.Short) *ingestion {
	return &ingestion{state: statePending, short: short}
}

func (in *ingestion) advance(to ingestionState) error {
	for _, next := range ingestionTransitions[in.state] {
		if next == to {
			in.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid ingestion transition %s -> %s", in.state, to)
}

func (in *ingestion) done() bool {
	return in.state == stateCommitted || in.state == stateRolledBack
}
