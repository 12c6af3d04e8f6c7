package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/internal/signal"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newRoomsAPI() (*RoomsAPI, *fakePublisher) {
	pub := &fakePublisher{}
	return &RoomsAPI{
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dir:    directory.NewMemory(),
		Events: pub,
	}, pub
}

func TestCreateRoom(t *testing.T) {
	api, pub := newRoomsAPI()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/rooms", strings.NewReader(`{"name":"standup","password":"secret"}`))
	api.Create(rec, req)

	require.Equal(t, 201, rec.Code)
	var resp struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		HasPassword bool   `json:"hasPassword"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "standup", resp.Name)
	assert.True(t, resp.HasPassword)
	assert.Equal(t, []string{signal.EventRoomCreated}, pub.events)
}

func TestCreateRoomRejectsDuplicateName(t *testing.T) {
	api, _ := newRoomsAPI()
	_, err := api.Dir.Create(context.Background(), "standup", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/rooms", strings.NewReader(`{"name":"standup"}`))
	api.Create(rec, req)

	assert.Equal(t, 409, rec.Code)
}

func TestCreateRoomRejectsBadPayload(t *testing.T) {
	api, pub := newRoomsAPI()

	for _, body := range []string{`{}`, `{"name":""}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/rooms", strings.NewReader(body))
		api.Create(rec, req)
		assert.Equal(t, 400, rec.Code, "body %q", body)
	}
	assert.Empty(t, pub.events)
}

func TestListRooms(t *testing.T) {
	api, _ := newRoomsAPI()
	ctx := context.Background()
	_, err := api.Dir.Create(ctx, "open", "")
	require.NoError(t, err)
	_, err = api.Dir.Create(ctx, "locked", "pw")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	api.List(rec, httptest.NewRequest("GET", "/api/rooms", nil))

	require.Equal(t, 200, rec.Code)
	var resp []struct {
		Name        string `json:"name"`
		HasPassword bool   `json:"hasPassword"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)

	byName := map[string]bool{}
	for _, r := range resp {
		byName[r.Name] = r.HasPassword
	}
	assert.False(t, byName["open"])
	assert.True(t, byName["locked"])
}
