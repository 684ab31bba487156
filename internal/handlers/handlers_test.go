package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/handlers"
	"socketWhiteboard/internal/hub"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/repositories"
	"socketWhiteboard/internal/servers/database"
	httpserver "socketWhiteboard/internal/servers/http"
	"socketWhiteboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.WarnLevel)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router      *gin.Engine
	server      *httptest.Server
	auth        *services.AuthenticationService
	coordinator *hub.Coordinator
}

type testOption func(config *configs.Config)

func newTestServer(t *testing.T, rdb *redis.Client, options ...testOption) *testServer {
	t.Helper()
	config := configs.NewConfig()
	config.Viper.Set("jwt.secret", testSecret)
	for _, option := range options {
		option(config)
	}

	db, err := database.Open(&models.Database{
		Driver: enums.DB_DRIVER_SQLITE,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	auth := services.NewAuthenticationService(repositories.NewAuthenticationRepository(db), config)
	whiteboards := services.NewWhiteboardService(repositories.NewWhiteboardRepository(db), nil)
	coordinator := hub.NewCoordinator(whiteboards, nil)

	router := httpserver.NewHttpServer(
		context.Background(),
		config,
		rdb,
		auth,
		coordinator,
		handlers.NewRestHandler(auth, whiteboards),
		handlers.NewSocketWhiteboardHandler(coordinator, auth, config),
	).Router()

	ts := &testServer{
		router:      router,
		server:      httptest.NewServer(router),
		auth:        auth,
		coordinator: coordinator,
	}
	t.Cleanup(func() {
		coordinator.Shutdown()
		ts.server.Close()
		_ = sqlDB.Close()
	})
	return ts
}

func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	response, errors := ts.auth.Register(context.Background(), &models.CredentialsRequestBody{Username: username, Password: "secret123"})
	require.Empty(t, errors)
	return response.Token
}

func (ts *testServer) socketURL(token string) string {
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func (ts *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.socketURL(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// do sends a JSON request through the router without a network round trip.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)

	var response apiResponse
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	}
	return recorder.Code, response
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "payload": payload}))
}

func readEvent(t *testing.T, conn *websocket.Conn) models.SocketEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.SocketEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

// expectEvent reads until an event with the given name arrives.
func expectEvent(t *testing.T, conn *websocket.Conn, name string) models.SocketEvent {
	t.Helper()
	for i := 0; i < 10; i++ {
		event := readEvent(t, conn)
		if event.Event == name {
			return event
		}
	}
	require.Failf(t, "event not received", "no %q event", name)
	return models.SocketEvent{}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
