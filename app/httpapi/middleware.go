package httpapi

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "request_id"
	localsUser      = "session_user"

	logMsgRequest = "http request"
)

// requestContext assigns a request id, bounds the request by the timeout and logs the outcome.
func (s *Server) requestContext(c *fiber.Ctx) error {
	requestID := c.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(headerRequestID, requestID)
	c.Locals(localsRequestID, requestID)

	ctx, cancel := context.WithTimeout(c.UserContext(), s.requestTimeout)
	defer cancel()

	c.SetUserContext(ctx)

	start := time.Now()

	if err := c.Next(); err != nil {
		if handlerErr := s.errorHandler(c, err); handlerErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logInfo(ctx, logMsgRequest,
		"request_id", requestID,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	return nil
}

// requireSession rejects requests without a valid session cookie.
func (s *Server) requireSession(c *fiber.Ctx) error {
	user, err := s.sessions.Subject(c.Cookies(SessionCookieName))
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(localsUser, user)

	return c.Next()
}

// hasBackupToken checks the bearer token of the backup endpoint. An unset token disables backups.
func (s *Server) hasBackupToken(c *fiber.Ctx) bool {
	if s.backupToken == "" {
		return false
	}

	token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")

	return found && subtle.ConstantTimeCompare([]byte(token), []byte(s.backupToken)) == 1
}

func (s *Server) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextLogger != nil {
		s.contextLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logError(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err.Error())

	if s.contextLogger != nil {
		s.contextLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
