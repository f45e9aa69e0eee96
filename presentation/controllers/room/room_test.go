package room_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/notification"
	"github.com/hilthontt/trio/infrastructure/persistence/repository"
	"github.com/hilthontt/trio/presentation/controllers/room"
	"github.com/hilthontt/trio/presentation/middlewares"
	"github.com/hilthontt/trio/presentation/routes"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	binding.Validator = new(middlewares.DefaultValidator)

	log := logger.NewNop()
	uc := match.NewMatchUseCase(
		repository.NewMemoryRoomRepository(),
		repository.NewMemoryWaitQueue(),
		notification.NewLogNotifier(log),
		repository.NewNoopAuditLogRepository(),
		log,
		match.Options{},
	)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middlewares.UserMiddleware(model.SystemClock{}, false, log))
	routes.RoomRoutes(v1, room.NewRoomController(uc, log))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeRoom(t *testing.T, rec *httptest.ResponseRecorder) room.RoomResponse {
	t.Helper()
	var out room.RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestJoinAnyQueuesThenCreateAndJoin(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/rooms/join-any", "a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var decision room.JoinAnyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.Equal(t, "wait", decision.Outcome)
	require.Nil(t, decision.Room)

	rec = do(t, router, http.MethodGet, "/api/v1/queue", "a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"size":1,"queued":true}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/rooms", "b", `{"title":"lobby"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeRoom(t, rec)
	require.Equal(t, "lobby", created.Title)
	require.Equal(t, []string{"b"}, created.Members)
	require.Equal(t, "wait", created.State)

	rec = do(t, router, http.MethodPost, "/api/v1/rooms/join-any", "a", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	require.Equal(t, "added", decision.Outcome)
	require.Equal(t, created.ID, decision.Room.ID)

	rec = do(t, router, http.MethodGet, "/api/v1/queue", "a", "")
	require.JSONEq(t, `{"size":0,"queued":false}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/rooms/"+created.ID+"/join", "c", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "work", decodeRoom(t, rec).State)

	rec = do(t, router, http.MethodPost, "/api/v1/rooms/"+created.ID+"/join", "d", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "room_full")
}

func TestGetAndListRooms(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/rooms/missing", "a", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/rooms", "a", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeRoom(t, rec)
	require.Len(t, created.Title, 10)

	rec = do(t, router, http.MethodGet, "/api/v1/rooms/"+created.ID, "z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, created.ID, decodeRoom(t, rec).ID)

	rec = do(t, router, http.MethodGet, "/api/v1/rooms?limit=5", "z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []room.RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = do(t, router, http.MethodGet, "/api/v1/rooms?limit=0", "z", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/rooms?limit=1000", "z", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaveRoomTransitions(t *testing.T) {
	router := newRouter(t)

	created := decodeRoom(t, do(t, router, http.MethodPost, "/api/v1/rooms", "a", ""))

	rec := do(t, router, http.MethodPost, "/api/v1/rooms/"+created.ID+"/leave", "b", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "not_member")

	rec = do(t, router, http.MethodPost, "/api/v1/rooms/"+created.ID+"/leave", "a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	left := decodeRoom(t, rec)
	require.Equal(t, "leave", left.State)
	require.Equal(t, []string{"a"}, left.MembersLeave)

	rec = do(t, router, http.MethodPost, "/api/v1/rooms/"+created.ID+"/join", "b", "")
	require.Equal(t, http.StatusGone, rec.Code)
}

func TestCreateRejectsSeatedUser(t *testing.T) {
	router := newRouter(t)

	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/rooms", "a", "").Code)
	rec := do(t, router, http.MethodPost, "/api/v1/rooms", "a", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already_member")
}

func TestCreateValidatesTitle(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/rooms", "a", `{"title":"`+strings.Repeat("x", 41)+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Title must be at most 40")
}

func TestWithdrawAndGuestIdentity(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/rooms/join-any", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/queue", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.JSONEq(t, `{"size":0,"queued":false}`, rec.Body.String())
}
