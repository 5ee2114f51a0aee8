package workflow

import (
	"fmt"

	"github.com/spigell/jobmatch/internal/analysis"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseAwaitingMatches
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseAwaitingMatches:
		return "awaiting_matches"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status messages shown to the user.
const (
	MsgSelectFile  = "Please select a file first!"
	MsgParsing     = "Parsing Resume..."
	MsgFoundSkills = "Found %d skills. Looking for matches..."
	MsgNoSkills    = "Resume parsed, but NO skills were found."
	MsgNoJobs      = "No matching jobs found for your specific skills."
	MsgParseFailed = "Error: Failed to analyze resume."
	MsgMatchFailed = "Error: Could not fetch jobs from database."
)

// State is one value of the workflow. Profile and Matches are set only in
// PhaseAwaitingMatches (profile only) and PhaseReady.
type State struct {
	Phase   Phase
	Profile *analysis.Profile
	Matches analysis.MatchSet
	Message string
	// Cause keeps the service error behind PhaseError.
	Cause error
}

// Busy reports whether a cycle is in flight. It gates Analyze only.
func (s State) Busy() bool {
	return s.Phase == PhaseUploading || s.Phase == PhaseAwaitingMatches
}

// HasResults reports whether the profile panel has something to show.
func (s State) HasResults() bool {
	return s.Phase == PhaseReady && s.Profile != nil
}

func (s State) clone() State {
	if s.Matches != nil {
		s.Matches = append(analysis.MatchSet(nil), s.Matches...)
	}
	return s
}

func idle() State {
	return State{Phase: PhaseIdle}
}

func uploading() State {
	return State{Phase: PhaseUploading, Message: MsgParsing}
}

func awaitingMatches(profile *analysis.Profile) State {
	return State{
		Phase:   PhaseAwaitingMatches,
		Profile: profile,
		Message: fmt.Sprintf(MsgFoundSkills, len(profile.Skills)),
	}
}

func ready(profile *analysis.Profile, matches analysis.MatchSet, message string) State {
	return State{
		Phase:   PhaseReady,
		Profile: profile,
		Matches: matches,
		Message: message,
	}
}

func failed(message string, cause error) State {
	return State{Phase: PhaseError, Message: message, Cause: cause}
}
