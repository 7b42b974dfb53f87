package store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"justapengu.in/ghostrace/internal/race"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()

	dir, err := ioutil.TempDir("", "ghostrace-store")

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})

	s, err := NewBoltStore(filepath.Join(dir, "ghostrace.db"))

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestBoltStoreRecordings(t *testing.T) {
	s := newTestStore(t)

	first := &Recording{
		Name:    "first lap",
		Created: time.Now().Add(-time.Hour),
		Frames: race.GhostPath{
			{X: -50, Y: 1, Z: -140, Rotation: 3.14},
			{X: -50, Y: 1, Z: -141, Rotation: 3.14},
		},
	}

	if err := s.UpsertRecording(first); err != nil {
		t.Fatal(err)
	}

	if first.ID == uuid.Nil {
		t.Fatalf("expected an ID to be assigned")
	}

	second := &Recording{Name: "second lap", Frames: race.GhostPath{{X: 1}}}

	if err := s.UpsertRecording(second); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadRecording(first.ID)

	if err != nil {
		t.Fatal(err)
	}

	if loaded.Name != first.Name || len(loaded.Frames) != 2 || loaded.Frames[1] != first.Frames[1] {
		t.Errorf("loaded recording does not match: %+v", loaded)
	}

	summaries, err := s.ListRecordings()

	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 2 || summaries[0].ID != second.ID || summaries[1].NumFrames != 2 {
		t.Errorf("expected newest recording first, got %+v", summaries)
	}

	if err := s.DeleteRecording(first.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadRecording(first.ID); err != ErrRecordingNotFound {
		t.Errorf("expected ErrRecordingNotFound, got %v", err)
	}

	if err := s.DeleteRecording(uuid.New()); err != ErrRecordingNotFound {
		t.Errorf("expected ErrRecordingNotFound deleting a missing recording, got %v", err)
	}
}
