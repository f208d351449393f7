package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

type pushHub interface {
	Serve(userID uuid.UUID, conn *websocket.Conn)
}

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, domain.Role, error)
}

// WSHandler upgrades authenticated clients to the notification channel.
type WSHandler struct {
	hub       pushHub
	validator tokenValidator
	upgrader  websocket.Upgrader
	log       *slog.Logger
}

// NewWSHandler creates a WSHandler. checkOrigin may be nil to accept any origin.
func NewWSHandler(hub pushHub, validator tokenValidator, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WSHandler{
		hub:       hub,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: logger.With("handler", "ws"),
	}
}

// Serve handles GET /ws. Browsers cannot set headers on a websocket
// handshake, so the token may also come as ?access_token=.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		token := r.URL.Query().Get("access_token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, _, err := h.validator.ValidateToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		userID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.log.DebugContext(r.Context(), "websocket connected", slog.String("user_id", userID.String()))
	h.hub.Serve(userID, conn)
}
