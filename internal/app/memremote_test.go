package service_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/remotesync"
)

// memRemote behaves like the leaderboard table with its notify trigger.
type memRemote struct {
	mu      sync.Mutex
	rows    []model.Entry
	subs    []*memSub
	failing bool
}

func (m *memRemote) List(context.Context) ([]model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errors.New("store offline")
	}
	out := slices.Clone(m.rows)
	slices.SortStableFunc(out, func(a, b model.Entry) int { return cmp.Compare(a.TimeTaken, b.TimeTaken) })
	return out, nil
}

func (m *memRemote) Insert(_ context.Context, e model.NewEntry) error {
	m.mu.Lock()
	if m.failing {
		m.mu.Unlock()
		return errors.New("store offline")
	}
	id := uuid.NewString()
	m.rows = append(m.rows, model.Entry{ID: id, TeamName: e.TeamName, Year: e.Year, Department: e.Department, TimeTaken: e.TimeTaken})
	m.mu.Unlock()
	m.notify("INSERT", id)
	return nil
}

func (m *memRemote) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	m.rows = slices.DeleteFunc(m.rows, func(e model.Entry) bool { return e.ID == id })
	m.mu.Unlock()
	m.notify("DELETE", id)
	return nil
}

func (m *memRemote) Subscribe(context.Context) (remotesync.Subscription, error) {
	sub := &memSub{ch: make(chan model.ChangeEvent, 32)}
	m.mu.Lock()
	m.subs = append(m.subs, sub)
	m.mu.Unlock()
	return sub, nil
}

func (m *memRemote) notify(op, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		s.send(model.ChangeEvent{Source: "memory", Op: op, RowID: id})
	}
}

func (m *memRemote) setFailing(v bool) {
	m.mu.Lock()
	m.failing = v
	m.mu.Unlock()
}

type memSub struct {
	mu     sync.Mutex
	ch     chan model.ChangeEvent
	closed bool
}

func (s *memSub) Events() <-chan model.ChangeEvent { return s.ch }

func (s *memSub) send(ev model.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.ch <- ev
	}
}

func (s *memSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *memSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
