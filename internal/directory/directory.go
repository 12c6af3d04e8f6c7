// Package directory is the durable room store: room records are created and
// listed over the REST API, looked up during signaling auth, and deleted by
// the background reclaimer once a room is both empty and stale.
package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrDuplicateName = errors.New("room name already exists")
)

type Room struct {
	ID           int64
	Name         string
	PasswordHash string // hex SHA-256 of the room password; empty = open room
	LastActivity time.Time
}

func (r Room) HasPassword() bool { return r.PasswordHash != "" }

type Directory interface {
	// Create inserts a room. An empty password means an open room.
	// Returns ErrDuplicateName when the name is taken.
	Create(ctx context.Context, name, password string) (Room, error)
	List(ctx context.Context) ([]Room, error)
	Get(ctx context.Context, id int64) (Room, error)
	UpdateActivity(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// HashPassword returns the stored form of a room password. Auth compares
// this digest byte-for-byte, so it must stay deterministic.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
