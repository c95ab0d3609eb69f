package session

import "strings"

// State represents a session's position in the production workflow.
type State string

const (
	StateIdle           State = "idle"
	StateMenuShown      State = "menu_shown"
	StateAudioSelection State = "audio_selection"
	StateAwaitingPhoto  State = "awaiting_photo"
	StatePreviewReady   State = "preview_ready"
	StateEncoding       State = "encoding"
)

var allStates = []State{
	StateIdle,
	StateMenuShown,
	StateAudioSelection,
	StateAwaitingPhoto,
	StatePreviewReady,
	StateEncoding,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Event identifies a workflow trigger arriving from the transport.
type Event string

const (
	EventFirstContact Event = "first_contact"
	EventCreateNew    Event = "create_new"
	EventAudioChosen  Event = "audio_chosen"
	EventPhoto        Event = "photo"
	EventConfirm      Event = "confirm"
	EventCancel       Event = "cancel"
)

// transitions is the closed (state, event) table. Events valid from any
// state are handled in Next before the lookup.
var transitions = map[State]map[Event]State{
	StateMenuShown: {
		EventCreateNew: StateAudioSelection,
	},
	StateAudioSelection: {
		EventAudioChosen: StateAwaitingPhoto,
	},
	StateAwaitingPhoto: {
		// Audio can be re-chosen until a photo arrives.
		EventAudioChosen: StateAwaitingPhoto,
		EventPhoto:       StatePreviewReady,
	},
	StatePreviewReady: {
		EventConfirm: StateEncoding,
	},
}

// Next resolves the transition table for (state, event). The second return
// is false for pairs the workflow rejects; callers must treat those as
// no-ops, never as faults.
func Next(state State, event Event) (State, bool) {
	switch event {
	case EventFirstContact, EventCancel:
		return StateMenuShown, true
	}
	byEvent, ok := transitions[state]
	if !ok {
		return state, false
	}
	next, ok := byEvent[event]
	if !ok {
		return state, false
	}
	return next, true
}
