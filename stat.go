package main

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// StatKey names a rollup scope: a specific model, a whole object, or the
// server-wide total (the zero value, Model{}).
type StatKey struct {
	Model Model
}

// NewStatKey builds a StatKey from optional object/name strings.
func NewStatKey(object, name *string) StatKey {
	return StatKey{Model: NewModel(object, name)}
}

// Metrics is the aggregate counted at every rollup tier.
type Metrics struct {
	Hits   uint64 `json:"hits"`
	Cached uint64 `json:"cached"`
	Bytes  uint64 `json:"bytes"`
}

// Add accumulates other into m, matching the original's AddAssign monoid.
func (m *Metrics) Add(other Metrics) {
	m.Hits += other.Hits
	m.Cached += other.Cached
	m.Bytes += other.Bytes
}

type statRecord struct {
	key     StatKey
	metrics Metrics
}

const statQueueCapacity = 500

// Stat is the server-wide metrics aggregator: one buffered channel feeding
// a single consumer goroutine that owns all writes to the rollup table, so
// readers only ever need a read lock.
type Stat struct {
	mu    sync.RWMutex
	table map[StatKey]Metrics
	ch    chan statRecord
}

// NewStat builds a Stat and starts its consumer goroutine. The goroutine
// runs for the life of the process; there is no Close.
func NewStat() *Stat {
	s := &Stat{
		table: make(map[StatKey]Metrics),
		ch:    make(chan statRecord, statQueueCapacity),
	}
	go s.consume()
	return s
}

func (s *Stat) consume() {
	for rec := range s.ch {
		s.insert(rec)
	}
}

// insert performs the three-tier rollup: per-object, then server-wide, then
// the key's own entry, each an add-to-existing-or-zero. A name present without an
// object is an illegal key shape and is logged and dropped rather than
// silently rolled into the server total.
func (s *Stat) insert(rec statRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.key.Model.HasName {
		if !rec.key.Model.HasObject {
			log.Error().Stringer("key", rec.key.Model).Msg("illegal model key for stat insert, ignored")
			return
		}
		objectKey := StatKey{Model: NewModel(&rec.key.Model.Object, nil)}
		objectMetrics := s.table[objectKey]
		objectMetrics.Add(rec.metrics)
		s.table[objectKey] = objectMetrics
	}

	if rec.key.Model.HasObject {
		serverKey := StatKey{}
		serverMetrics := s.table[serverKey]
		serverMetrics.Add(rec.metrics)
		s.table[serverKey] = serverMetrics
	}

	entryMetrics := s.table[rec.key]
	entryMetrics.Add(rec.metrics)
	s.table[rec.key] = entryMetrics
}

// Insert enqueues metrics under key, blocking only if the queue is full
// (capacity 500), matching the original's bounded mpsc channel.
func (s *Stat) Insert(key StatKey, metrics Metrics) {
	s.ch <- statRecord{key: key, metrics: metrics}
}

// Get returns the current rollup for key. runtime.Gosched yields to the
// consumer goroutine first so inserts queued ahead of this call are likely
// applied before the read — a soft, eventual-consistency barrier, not a
// guarantee, mirroring the original's task::yield_now().await.
func (s *Stat) Get(key StatKey) Metrics {
	runtime.Gosched()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[key]
}
