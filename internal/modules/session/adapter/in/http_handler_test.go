package in_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionin "saferun/internal/modules/session/adapter/in"
	sessionout "saferun/internal/modules/session/adapter/out"
	"saferun/internal/modules/session/domain"
	sessiondto "saferun/internal/modules/session/dto"
	"saferun/internal/modules/session/service"
	"saferun/internal/modules/session/usecase"
	"saferun/internal/platform/clock"
	"saferun/internal/platform/config"
	"saferun/internal/platform/httpserver"
	"saferun/internal/platform/id"
)

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, domain.Event, domain.Session) domain.Delivery {
	return domain.Delivery{Attempted: true, Error: "gateway unavailable"}
}

func newServer() *echo.Echo {
	clk := clock.SystemClock{}
	store := sessionout.NewMemoryStore()
	uc := usecase.NewInteractor(
		service.NewEngine(clk, id.UUID{}, store, failingNotifier{}, nil, service.ConfigFrom(config.Default(""))),
		service.NewTracker(clk, store, failingNotifier{}, nil),
		service.NewEscalations(clk, store),
	)
	return httpserver.New(":0", nil, sessionin.NewHTTPHandler(uc)).Echo
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionRoutesLifecycle(t *testing.T) {
	t.Parallel()
	e := newServer()

	rec := do(e, http.MethodPost, "/api/v1/sessions", `{"owner_id":"u1","minutes":45}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created sessiondto.ResultOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.Notification.Sent, "degraded delivery is reported, not fatal")
	assert.Equal(t, "gateway unavailable", created.Notification.Error)
	sessionID := created.Session.ID

	rec = do(e, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/checkin", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"check_in_count":1`)

	rec = do(e, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/extend", `{"minutes":15}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/end", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = do(e, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/checkin", `{"type":"safe"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/owners/u1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sessionID)
}

func TestSessionRoutesErrors(t *testing.T) {
	t.Parallel()
	e := newServer()

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/v1/sessions/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/v1/sessions", `{"owner_id":"u1","minutes":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/v1/sessions", `{"owner_id":`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/api/v1/sessions/missing/panic", "").Code)

	rec := do(e, http.MethodPost, "/api/v1/sessions", `{"owner_id":"u1","minutes":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessiondto.ResultOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPatch, "/api/v1/sessions/"+created.Session.ID+"/position", `{"latitude":1,"longitude":1}`).Code)
}

func TestRouteSessionRoutes(t *testing.T) {
	t.Parallel()
	e := newServer()

	rec := do(e, http.MethodPost, "/api/v1/route-sessions", `{"owner_id":"u1","start":{"latitude":51.5074,"longitude":-0.0877},"end":{"latitude":51.5055,"longitude":-0.0754}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created sessiondto.ResultOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Session.Route)
	assert.Equal(t, 9, created.Session.Route.EstimatedMinutes)

	rec = do(e, http.MethodPatch, "/api/v1/sessions/"+created.Session.ID+"/position", `{"latitude":51.5055,"longitude":-0.0754}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pos sessiondto.PositionOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.True(t, pos.Arrived)
	assert.Equal(t, "completed", pos.Session.Status)

	rec = do(e, http.MethodPost, "/api/v1/sessions/"+created.Session.ID+"/panic", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
