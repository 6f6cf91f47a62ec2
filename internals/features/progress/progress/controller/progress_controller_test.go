package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	pointModel "ecoguard_backend/internals/features/progress/points/model"
	"ecoguard_backend/internals/features/progress/progress/model"
	"ecoguard_backend/internals/features/progress/progress/repository"
	"ecoguard_backend/internals/features/progress/progress/service"
)

type mapStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.UserProgress
}

func (m *mapStore) Mutate(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	if !ok {
		row = model.UserProgress{UserProgressUserID: userID, UserProgressLevel: 1}
	}
	eff, err := fn(&row)
	if err != nil {
		return nil, err
	}
	if eff != nil {
		m.rows[userID] = row
	}
	return &row, nil
}

func (m *mapStore) Find(_ context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}
	return &row, nil
}

func (m *mapStore) ListPointLogs(context.Context, uuid.UUID, int, int) ([]pointModel.UserPointLog, int64, error) {
	return nil, 0, nil
}

func newApp(t *testing.T) (*fiber.App, uuid.UUID) {
	t.Helper()
	svc := service.NewService(&mapStore{rows: map[uuid.UUID]model.UserProgress{}}, nil, nil, zap.NewNop())
	ctl := NewUserProgressController(svc, zap.NewNop())
	me := uuid.New()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", me.String())
		return c.Next()
	})
	app.Get("/progress", ctl.GetMine)
	app.Put("/progress/wallet", ctl.SetWallet)
	app.Delete("/progress/wallet", ctl.ClearWallet)
	app.Get("/progress/wallet/balance", ctl.WalletBalance)
	app.Post("/a/progress/:user_id/items/:item_id/complete", ctl.CompleteItem)
	return app, me
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, gjson.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func TestGetMine_DefaultLedger(t *testing.T) {
	app, me := newApp(t)
	code, body := do(t, app, http.MethodGet, "/progress", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, me.String(), body.Get("data.user_id").String())
	assert.EqualValues(t, 1, body.Get("data.level").Int())
	assert.EqualValues(t, 10, body.Get("data.next_level_xp").Int())
	assert.True(t, body.Get("data.activity_history").IsArray())
}

func TestWalletFlow(t *testing.T) {
	app, _ := newApp(t)

	code, _ := do(t, app, http.MethodPut, "/progress/wallet", `{"wallet_address":"0x12"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body := do(t, app, http.MethodPut, "/progress/wallet", `{"wallet_address":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", body.Get("data.wallet_address").String())

	code, _ = do(t, app, http.MethodGet, "/progress/wallet/balance", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, body = do(t, app, http.MethodDelete, "/progress/wallet", "")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, body.Get("data.wallet_address").Exists())

	code, _ = do(t, app, http.MethodGet, "/progress/wallet/balance", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCompleteItem_AwardsOnce(t *testing.T) {
	app, _ := newApp(t)
	target := uuid.New()
	path := "/a/progress/" + target.String() + "/items/course-1/complete"

	code, body := do(t, app, http.MethodPost, path, `{"xp":40,"type":"course","description":"intro"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Get("data.awarded").Bool())
	assert.EqualValues(t, 40, body.Get("data.progress.xp_points").Int())
	assert.EqualValues(t, 3, body.Get("data.progress.level").Int())

	code, body = do(t, app, http.MethodPost, path, `{"xp":40}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, body.Get("data.awarded").Bool())
	assert.EqualValues(t, 0, body.Get("data.xp").Int())
	assert.EqualValues(t, 40, body.Get("data.progress.xp_points").Int())

	code, _ = do(t, app, http.MethodPost, "/a/progress/not-a-uuid/items/x/complete", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
