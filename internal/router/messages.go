package router

import "github.com/voicesurf/voicesurf/internal/index"

// TabID identifies a browser tab for its whole lifetime.
type TabID uint64

// Event is the closed set of messages the router consumes. Browser and
// Talon readers send FocusTab, UpdateIndex, CloseTab and Query; tab workers
// send ScoreResult and VocabularyUpdate.
type Event interface {
	routerEvent()
}

// FocusTab asks the tab to republish its vocabulary.
type FocusTab struct {
	TabID TabID
}

// UpdateIndex replaces the Updated documents and then drops the Removed
// ones. An ID present in both lists ends up removed.
type UpdateIndex struct {
	TabID   TabID
	Updated []index.Document
	Removed []index.DocumentID
}

// CloseTab terminates the tab's worker.
type CloseTab struct {
	TabID TabID
}

// Query scores Text against the tab's index.
type Query struct {
	TabID TabID
	Text  string
}

// ScoreResult carries the outcome of a Query.
type ScoreResult struct {
	TabID  TabID
	Scores map[index.DocumentID]float64
}

// VocabularyUpdate carries the tab's full vocabulary after a FocusTab or
// UpdateIndex.
type VocabularyUpdate struct {
	TabID TabID
	Words []string
}

func (FocusTab) routerEvent()         {}
func (UpdateIndex) routerEvent()      {}
func (CloseTab) routerEvent()         {}
func (Query) routerEvent()            {}
func (ScoreResult) routerEvent()      {}
func (VocabularyUpdate) routerEvent() {}

// command is the closed set of messages a tab worker consumes.
type command interface {
	workerCommand()
}

type focusCommand struct{}

type updateCommand struct {
	updated []index.Document
	removed []index.DocumentID
}

type queryCommand struct {
	text string
}

type closeCommand struct{}

func (focusCommand) workerCommand()  {}
func (updateCommand) workerCommand() {}
func (queryCommand) workerCommand()  {}
func (closeCommand) workerCommand()  {}

// eventKind names an event for logs and metric labels.
func eventKind(ev Event) string {
	switch ev.(type) {
	case FocusTab:
		return "focus_tab"
	case UpdateIndex:
		return "update_index"
	case CloseTab:
		return "close_tab"
	case Query:
		return "query"
	case ScoreResult:
		return "score_result"
	case VocabularyUpdate:
		return "vocabulary_update"
	default:
		return "unknown"
	}
}
