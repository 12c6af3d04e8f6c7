package directory

import (
	"context"
	"sync"
	"time"
)

// Memory is a map-backed Directory for dev runs and tests. Records don't
// survive a restart, which is fine for both.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	rooms  map[int64]Room
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, rooms: map[int64]Room{}}
}

func (m *Memory) Create(_ context.Context, name, password string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Name == name {
			return Room{}, ErrDuplicateName
		}
	}
	r := Room{ID: m.nextID, Name: name, LastActivity: time.Now().UTC()}
	if password != "" {
		r.PasswordHash = HashPassword(password)
	}
	m.nextID++
	m.rooms[r.ID] = r
	return r, nil
}

func (m *Memory) List(context.Context) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id int64) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) UpdateActivity(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return ErrNotFound
	}
	r.LastActivity = at.UTC()
	m.rooms[id] = r
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}
