package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat/chattest"
)

// memRoster keeps the roster in a chattest.Members
type memRoster struct {
	*chattest.Members
	forgotten []int64
	// joinFail makes Join fail for these user ids
	joinFail map[int64]bool
}

func (r *memRoster) Join(_ context.Context, c chat.Chat, u chat.User) error {
	if r.joinFail[u.ID] {
		return errors.New("roster unavailable")
	}
	r.Members.Remove(c, u)
	r.Members.Add(c, chat.StatusMember, u)
	return nil
}

func (r *memRoster) SetStatus(_ context.Context, c chat.Chat, u chat.User, status chat.MemberStatus) error {
	r.Members.Remove(c, u)
	r.Members.Add(c, status, u)
	return nil
}

func (r *memRoster) Leave(_ context.Context, c chat.Chat, u chat.User) error {
	r.Members.Remove(c, u)
	return nil
}

func (r *memRoster) Forget(_ context.Context, c chat.Chat) error {
	r.Members.Clear(c)
	r.forgotten = append(r.forgotten, c.ID)
	return nil
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
