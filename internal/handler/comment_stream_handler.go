package handler

import (
	"os"

	"festival-cms-be/internal/pkg/logger"
	internalWS "festival-cms-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CommentStreamHandler upgrades websocket requests onto a submission's live
// comment feed.
type CommentStreamHandler struct {
	streams *internalWS.StreamManager
	logger  logger.ILogger
}

func NewCommentStreamHandler(streams *internalWS.StreamManager, log logger.ILogger) *CommentStreamHandler {
	return &CommentStreamHandler{
		streams: streams,
		logger:  log,
	}
}

// ServeWs authenticates the handshake and hands the connection to the stream
// manager. Browsers cannot set headers on websocket upgrades, so the token is
// accepted from the query string as well.
func (h *CommentStreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("CommentStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	submissionID := c.Params("id")
	if submissionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing submission id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("CommentStreamHandler", "Starting comment stream session", map[string]interface{}{
				"submission_id": submissionID,
				"user_id":       userID,
			})
			h.streams.ServeCommentStream(conn, submissionID, userID)
			h.logger.Info("CommentStreamHandler", "Comment stream session ended", map[string]interface{}{
				"submission_id": submissionID,
				"user_id":       userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes mounts the websocket endpoint.
func (h *CommentStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/submission/:id/comments", h.ServeWs)
}
