package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"justapengu.in/ghostrace/internal/race"
)

var (
	ErrRecordingNotFound = errors.New("store: recording not found")

	recordingsBucket = []byte("recordings")
)

// Recording is a saved movement log that can be replayed as a ghost.
type Recording struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name"`
	Created time.Time      `json:"created"`
	Frames  race.GhostPath `json:"frames"`
}

// RecordingSummary describes a recording without its frames.
type RecordingSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
	NumFrames int       `json:"num_frames"`
}

type Store interface {
	UpsertRecording(recording *Recording) error
	LoadRecording(id uuid.UUID) (*Recording, error)
	ListRecordings() ([]RecordingSummary, error)
	DeleteRecording(id uuid.UUID) error
	Close() error
}

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})

	if err != nil {
		return nil, errors.Wrapf(err, "store: could not open %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordingsBucket)

		return err
	})

	if err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, "store: could not create recordings bucket")
	}

	return &BoltStore{db: db}, nil
}

// UpsertRecording saves recording, giving it an ID and creation time if it has none.
func (rs *BoltStore) UpsertRecording(recording *Recording) error {
	if recording.ID == uuid.Nil {
		recording.ID = uuid.New()
	}

	if recording.Created.IsZero() {
		recording.Created = time.Now()
	}

	data, err := json.Marshal(recording)

	if err != nil {
		return errors.Wrap(err, "store: could not encode recording")
	}

	return rs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordingsBucket).Put(recording.ID[:], data)
	})
}

func (rs *BoltStore) LoadRecording(id uuid.UUID) (*Recording, error) {
	var recording *Recording

	err := rs.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(recordingsBucket).Get(id[:])

		if data == nil {
			return ErrRecordingNotFound
		}

		recording = &Recording{}

		return errors.Wrapf(json.Unmarshal(data, recording), "store: could not decode recording %s", id)
	})

	if err != nil {
		return nil, err
	}

	return recording, nil
}

// ListRecordings returns every recording, newest first.
func (rs *BoltStore) ListRecordings() ([]RecordingSummary, error) {
	var summaries []RecordingSummary

	err := rs.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordingsBucket).ForEach(func(k, v []byte) error {
			var recording Recording

			if err := json.Unmarshal(v, &recording); err != nil {
				return errors.Wrapf(err, "store: could not decode recording %x", k)
			}

			summaries = append(summaries, RecordingSummary{
				ID:        recording.ID,
				Name:      recording.Name,
				Created:   recording.Created,
				NumFrames: len(recording.Frames),
			})

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Created.After(summaries[j].Created)
	})

	return summaries, nil
}

func (rs *BoltStore) DeleteRecording(id uuid.UUID) error {
	return rs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordingsBucket)

		if bucket.Get(id[:]) == nil {
			return ErrRecordingNotFound
		}

		return bucket.Delete(id[:])
	})
}

func (rs *BoltStore) Close() error {
	return rs.db.Close()
}
