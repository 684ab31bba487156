package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/hub"
	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/msgs"
	"socketWhiteboard/internal/utils"
	"socketWhiteboard/internal/validators"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type SocketWhiteboardHandler struct {
	upgrader       websocket.Upgrader
	coordinator    *hub.Coordinator
	verifier       interfaces.TokenVerifier
	maxMessageSize int64
	writeTimeout   time.Duration
	pingInterval   time.Duration
	messageRate    rate.Limit
	messageBurst   int
}

func NewSocketWhiteboardHandler(
	coordinator *hub.Coordinator,
	verifier interfaces.TokenVerifier,
	config *configs.Config,
) *SocketWhiteboardHandler {
	allowedOrigins := config.Viper.GetStringSlice("server.allowed_origins")
	pingInterval := time.Duration(config.Viper.GetInt("socket.ping_interval_seconds")) * time.Second
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	writeTimeout := time.Duration(config.Viper.GetInt("socket.write_timeout_seconds")) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	messageRate := rate.Limit(config.Viper.GetFloat64("socket.messages_per_second"))
	if messageRate <= 0 {
		messageRate = rate.Inf
	}
	return &SocketWhiteboardHandler{
		coordinator:    coordinator,
		verifier:       verifier,
		maxMessageSize: config.Viper.GetInt64("socket.max_message_size"),
		writeTimeout:   writeTimeout,
		pingInterval:   pingInterval,
		messageRate:    messageRate,
		messageBurst:   max(config.Viper.GetInt("socket.message_burst"), 1),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleSocketWhiteboardRoute godoc
// @Summary      Open a whiteboard socket
// @Description  Upgrades to a websocket after validating the session token (query "token" or Bearer header).
// @Tags         whiteboard
// @Param        token  query     string  false  "Session token"
// @Failure      401    {object}  models.Response
// @Router       /ws [get]
func (swh *SocketWhiteboardHandler) HandleSocketWhiteboardRoute(ctx *gin.Context) {
	// Session gate: nothing is upgraded for an unauthenticated caller.
	claims, err := swh.authorize(ctx)
	if err != nil {
		logrus.WithError(err).WithField("remote", ctx.ClientIP()).Info("rejected whiteboard socket")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: msgs.MsgYouMustLoginFirst,
			Errors:  []error{errs.ErrUnauthorized},
		})
		return
	}

	ws, err := swh.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		logrus.WithError(err).Warn("failed to upgrade whiteboard socket")
		return
	}

	client := newSocketClient(ws, claims.Username, swh.writeTimeout, rate.NewLimiter(swh.messageRate, swh.messageBurst))
	swh.HandleConnection(ctx.Request.Context(), client)
}

func (swh *SocketWhiteboardHandler) authorize(ctx *gin.Context) (*models.Claims, error) {
	token := ctx.Query("token")
	if token == "" {
		token = utils.BearerToken(ctx.GetHeader("Authorization"))
	}
	if token == "" {
		return nil, errs.ErrUnauthorized
	}
	return swh.verifier.VerifyToken(token)
}

// HandleConnection runs the connection until it closes. Messages are handled one at a time in
// arrival order.
func (swh *SocketWhiteboardHandler) HandleConnection(ctx context.Context, client *socketClient) {
	log := logrus.WithFields(logrus.Fields{"user": client.Username(), "conn_id": client.ID()})
	log.Info("whiteboard socket connected")
	swh.coordinator.Register(client)

	defer func() {
		swh.coordinator.Leave(context.WithoutCancel(ctx), client)
		if err := client.Close(); err != nil {
			log.WithError(err).Debug("error closing connection")
		}
		log.Info("whiteboard socket disconnected")
	}()

	client.conn.SetReadLimit(swh.maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(2 * swh.pingInterval)); err != nil {
		log.WithError(err).Warn("failed to set read deadline")
		return
	}
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(2 * swh.pingInterval))
	})
	go swh.keepAlive(client)

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("whiteboard socket closed unexpectedly")
			}
			return
		}
		if err := client.conn.SetReadDeadline(time.Now().Add(2 * swh.pingInterval)); err != nil {
			log.WithError(err).Warn("failed to set read deadline")
			return
		}

		if !client.limiter.Allow() {
			swh.sendError(client, errs.ErrTooManyRequests)
			continue
		}

		var event models.SocketEvent
		if err := json.Unmarshal(data, &event); err != nil {
			swh.sendError(client, errs.ErrInvalidPayload)
			continue
		}
		if err := swh.handleEvent(ctx, client, event); err != nil {
			log.WithError(err).WithField("event", event.Event).Warn("whiteboard event failed")
			swh.sendError(client, err)
		}
	}
}

func (swh *SocketWhiteboardHandler) handleEvent(ctx context.Context, client *socketClient, event models.SocketEvent) error {
	switch event.Event {
	case enums.SOCKET_EVENT_JOIN_ROOM:
		payload, err := validators.DecodeJoinRoom(event.Payload)
		if err != nil {
			return err
		}
		if payload.Username != "" && payload.Username != client.Username() {
			logrus.WithFields(logrus.Fields{"claimed": payload.Username, "user": client.Username()}).
				Debug("ignoring username in joinRoom payload")
		}
		return swh.coordinator.Join(ctx, client, payload.Room.String())
	case enums.SOCKET_EVENT_CANVAS:
		payload, err := validators.DecodeCanvas(event.Payload)
		if err != nil {
			return err
		}
		return swh.coordinator.Update(ctx, client, payload.Room.String(), models.Document(payload.Message))
	default:
		return errs.ErrUnknownEvent
	}
}

func (swh *SocketWhiteboardHandler) keepAlive(client *socketClient) {
	ticker := time.NewTicker(swh.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := client.ping(); err != nil {
				_ = client.Close()
				return
			}
		case <-client.closed:
			return
		}
	}
}

func (swh *SocketWhiteboardHandler) sendError(client *socketClient, err error) {
	event, mErr := models.NewSocketEvent(enums.SOCKET_EVENT_ERROR, models.ErrorPayload{Reason: errorReason(err)})
	if mErr != nil {
		return
	}
	if sErr := swh.coordinator.SendTo(client, event); sErr != nil {
		logrus.WithError(sErr).WithField("conn_id", client.ID()).Debug("failed to deliver error message")
	}
}

// errorReason hides driver details of storage faults from clients.
func errorReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrStorage):
		return errs.ErrStorage.Error()
	case errors.Is(err, errs.ErrBroadcastFailed):
		return errs.ErrBroadcastFailed.Error()
	default:
		return err.Error()
	}
}
