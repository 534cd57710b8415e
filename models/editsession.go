package models

import "fmt"

// EditSession tracks unsaved changes for one open editor.
//
// Clean -> Dirty -> {Committed(->Clean), Discarded}. Every exit affordance on a
// dirty session must go through ResolveExit; a path that skips the prompt is a
// defect.
type EditSession struct {
	State EditState `json:"state"`
}

func NewEditSession() EditSession {
	return EditSession{State: EditStateClean}
}

func (s *EditSession) IsDirty() bool { return s.State == EditStateDirty }

func (s *EditSession) IsDiscarded() bool { return s.State == EditStateDiscarded }

// MarkDirty records a mutation. Any scalar edit, resource add/remove, or
// sub-item change goes through here.
func (s *EditSession) MarkDirty() error {
	if s.State == EditStateDiscarded {
		return fmt.Errorf("session already discarded")
	}
	s.State = EditStateDirty
	return nil
}

// MarkCommitted is called after a successful full commit.
func (s *EditSession) MarkCommitted() error {
	if s.State == EditStateDiscarded {
		return fmt.Errorf("session already discarded")
	}
	s.State = EditStateClean
	return nil
}

// RequestExit reports whether leaving needs the save/discard/cancel prompt.
// A clean session exits immediately with no write.
func (s *EditSession) RequestExit() (needsConfirm bool) {
	return s.State == EditStateDirty
}

type ExitAction string

const (
	// ExitActionLeave: exit now, nothing to write.
	ExitActionLeave ExitAction = "leave"
	// ExitActionCommit: run a full commit, then exit.
	ExitActionCommit ExitAction = "commit"
	// ExitActionStay: user cancelled, remain in the editor unchanged.
	ExitActionStay ExitAction = "stay"
)

// ResolveExit applies the user's prompt choice.
func (s *EditSession) ResolveExit(choice ExitChoice) (ExitAction, error) {
	if s.State == EditStateDiscarded {
		return "", fmt.Errorf("session already discarded")
	}
	if s.State != EditStateDirty {
		return ExitActionLeave, nil
	}
	switch choice {
	case ExitChoiceSave:
		return ExitActionCommit, nil
	case ExitChoiceDiscard:
		s.State = EditStateDiscarded
		return ExitActionLeave, nil
	case ExitChoiceCancel:
		return ExitActionStay, nil
	default:
		return "", fmt.Errorf("unknown exit choice %q", choice)
	}
}
