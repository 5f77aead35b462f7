package session

import "fmt"

// Stage is the position of a session in the conversation graph.
//
//	new ──► pending_consent ──► collecting_data ──► waiting_qualification
//	              │                                         │
//	              │                                         ▼
//	              │             waiting_dispatch_consent ◄── waiting_candidate_note
//	              │                 │          │
//	              │                 ▼          │
//	              │      dispatched / offered_job
//	              │                 │          │
//	              └───────────────► completed ◄┘
//
// completed is absorbing. A reset deletes the session instead of transitioning.
type Stage string

const (
	StageNew                    Stage = "new"
	StagePendingConsent         Stage = "pending_consent"
	StageCollectingData         Stage = "collecting_data"
	StageWaitingQualification   Stage = "waiting_qualification"
	StageWaitingCandidateNote   Stage = "waiting_candidate_note"
	StageWaitingDispatchConsent Stage = "waiting_dispatch_consent"
	StageDispatched             Stage = "dispatched"
	// StageOfferedJob is kept for sessions stored by older deployments.
	StageOfferedJob Stage = "offered_job"
	StageCompleted  Stage = "completed"
)

var validTransitions = map[Stage][]Stage{
	StageNew:                    {StagePendingConsent},
	StagePendingConsent:         {StageCollectingData, StageCompleted},
	StageCollectingData:         {StageWaitingQualification},
	StageWaitingQualification:   {StageWaitingCandidateNote},
	StageWaitingCandidateNote:   {StageWaitingDispatchConsent},
	StageWaitingDispatchConsent: {StageDispatched, StageCompleted},
	StageDispatched:             {StageCompleted},
	StageOfferedJob:             {StageCompleted},
	// completed has no outgoing transitions
}

// ParseStage converts a raw string to a Stage, returning an error for unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageNew, StagePendingConsent, StageCollectingData, StageWaitingQualification,
		StageWaitingCandidateNote, StageWaitingDispatchConsent, StageDispatched,
		StageOfferedJob, StageCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown session stage %q", s)
}

// IsTransitionAllowed reports whether moving from → to follows the graph.
// Staying in the same stage is always allowed.
func IsTransitionAllowed(from, to Stage) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage only answers closing messages.
func IsTerminal(s Stage) bool {
	return s == StageCompleted || s == StageDispatched || s == StageOfferedJob
}
