package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// State tracks how far an execution record has moved through the outbox.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one journaled execution plus its delivery bookkeeping.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const headerLen = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, errors.New("journal: record too short")
	}
	rec := Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}
	if len(b) > headerLen {
		rec.Payload = append([]byte(nil), b[headerLen:]...)
	}
	return rec, nil
}

// Journal is a pebble-backed outbox for executed trades. It records
// delivery state, not book state: the engine never replays it into a book.
type Journal struct {
	db *pebble.DB
}

func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // executions must survive a crash until acked
	})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores a new pending execution under seq.
func (j *Journal) Append(seq uint64, payload []byte) error {
	rec := Record{State: StateNew, Payload: payload}
	return j.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// MarkSent flags the record as handed to the broker.
func (j *Journal) MarkSent(seq uint64) error {
	return j.updateState(seq, StateSent)
}

// MarkAcked flags the record as acknowledged by the broker.
func (j *Journal) MarkAcked(seq uint64) error {
	return j.updateState(seq, StateAcked)
}

// Delete removes an acked record (cleanup).
func (j *Journal) Delete(seq uint64) error {
	return j.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the record stored under seq.
func (j *Journal) Get(seq uint64) (Record, error) {
	val, closer, err := j.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(val)
}

func (j *Journal) updateState(seq uint64, state State) error {
	rec, err := j.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	return j.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// ScanPending iterates every record that has not been acked yet, in
// sequence order. The broadcaster drives delivery off this.
func (j *Journal) ScanPending(fn func(seq uint64, rec Record) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("exec/"),
		UpperBound: []byte("exec/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}

		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("exec/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("exec/"))), "%d", &seq)
	return seq, err
}
