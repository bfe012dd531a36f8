// ABOUTME: Sentinel errors for caller mistakes the HTTP layer maps to 4xx
// ABOUTME: Everything else bubbles up wrapped and becomes a 500
package core

import "errors"

var (
	// ErrSessionNotFound means no state exists for the session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoMealContext means the session has no normalized input to modify
	ErrNoMealContext = errors.New("no meal context found")
	// ErrNoPendingSelection means the session is not awaiting a selection
	ErrNoPendingSelection = errors.New("no pending selection")
	// ErrSuggestionNotFound means the id is not among the buffered suggestions
	ErrSuggestionNotFound = errors.New("suggestion not found in session")
	// ErrMealNotFound means the meal id does not exist
	ErrMealNotFound = errors.New("meal not found")
)
