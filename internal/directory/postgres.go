package directory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"log/slog"
)

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool-backed directory
func NewPostgres(ctx context.Context, url string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// Create inserts a new room; name uniqueness is enforced by the DB
func (p *Postgres) Create(ctx context.Context, name, password string) (Room, error) {
	var hash *string
	if password != "" {
		h := HashPassword(password)
		hash = &h
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO rooms (name, password_hash, last_activity)
		VALUES ($1, $2, NOW())
		RETURNING id, name, password_hash, last_activity
	`, name, hash)

	r, err := scanRoom(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return Room{}, ErrDuplicateName
		}
		return Room{}, err
	}
	return r, nil
}

// List returns every durable room record
func (p *Postgres) List(ctx context.Context) ([]Room, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, password_hash, last_activity
		FROM rooms
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get fetches a room by ID
func (p *Postgres) Get(ctx context.Context, id int64) (Room, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, password_hash, last_activity
		FROM rooms
		WHERE id = $1
	`, id)

	r, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	return r, err
}

// UpdateActivity bumps the room's last-activity timestamp
func (p *Postgres) UpdateActivity(ctx context.Context, id int64, at time.Time) error {
	ct, err := p.pool.Exec(ctx, `
		UPDATE rooms SET last_activity = $2 WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the durable record; only the reclaimer calls this
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	ct, err := p.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.log.Info("room.deleted", "id", id)
	return nil
}

func scanRoom(row pgx.Row) (Room, error) {
	var r Room
	var hash *string
	if err := row.Scan(&r.ID, &r.Name, &hash, &r.LastActivity); err != nil {
		return Room{}, err
	}
	if hash != nil {
		r.PasswordHash = *hash
	}
	return r, nil
}
