package models

import "testing"

func TestNewSessionIsClean(t *testing.T) {
	s := NewEditSession()
	if s.State != EditStateClean {
		t.Fatalf("state = %s, want Clean", s.State)
	}
	if s.RequestExit() {
		t.Error("clean session should not need an exit prompt")
	}
}

func TestMarkDirtyThenCommitted(t *testing.T) {
	s := NewEditSession()
	if err := s.MarkDirty(); err != nil {
		t.Fatal(err)
	}
	if !s.IsDirty() {
		t.Fatal("expected Dirty")
	}
	if !s.RequestExit() {
		t.Error("dirty session must prompt before exit")
	}
	if err := s.MarkCommitted(); err != nil {
		t.Fatal(err)
	}
	if s.State != EditStateClean {
		t.Errorf("state after commit = %s, want Clean", s.State)
	}
}

func TestCleanExitSkipsPrompt(t *testing.T) {
	s := NewEditSession()
	action, err := s.ResolveExit("")
	if err != nil {
		t.Fatal(err)
	}
	if action != ExitActionLeave {
		t.Errorf("action = %s, want leave", action)
	}
}

func TestDirtyExitSave(t *testing.T) {
	s := NewEditSession()
	_ = s.MarkDirty()
	action, err := s.ResolveExit(ExitChoiceSave)
	if err != nil {
		t.Fatal(err)
	}
	if action != ExitActionCommit {
		t.Errorf("action = %s, want commit", action)
	}
	// Still dirty until the commit itself succeeds.
	if !s.IsDirty() {
		t.Error("save choice must not clear the dirty flag by itself")
	}
}

func TestDirtyExitDiscard(t *testing.T) {
	s := NewEditSession()
	_ = s.MarkDirty()
	action, err := s.ResolveExit(ExitChoiceDiscard)
	if err != nil {
		t.Fatal(err)
	}
	if action != ExitActionLeave {
		t.Errorf("action = %s, want leave", action)
	}
	if !s.IsDiscarded() {
		t.Error("expected Discarded")
	}
	if err := s.MarkDirty(); err == nil {
		t.Error("mutating a discarded session must fail")
	}
	if _, err := s.ResolveExit(ExitChoiceSave); err == nil {
		t.Error("exiting a discarded session again must fail")
	}
}

func TestDirtyExitCancelStays(t *testing.T) {
	s := NewEditSession()
	_ = s.MarkDirty()
	action, err := s.ResolveExit(ExitChoiceCancel)
	if err != nil {
		t.Fatal(err)
	}
	if action != ExitActionStay {
		t.Errorf("action = %s, want stay", action)
	}
	if !s.IsDirty() {
		t.Error("cancel must leave the session dirty")
	}
}

func TestUnknownExitChoice(t *testing.T) {
	s := NewEditSession()
	_ = s.MarkDirty()
	if _, err := s.ResolveExit("maybe"); err == nil {
		t.Error("expected error for unknown choice")
	}
}
