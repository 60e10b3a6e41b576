package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type okBody struct {
	OK bool `json:"ok"`
}

func (s *Server) sessionCookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   s.sessions.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (s *Server) login(c *fiber.Ctx) error {
	var request loginRequest
	if err := s.bind(c, &request); err != nil {
		return err
	}

	if !s.sessions.Verify(request.User, request.Pass) {
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: ErrInvalidCredentials.Error()})
	}

	token, err := s.sessions.Issue(request.User)
	if err != nil {
		return err
	}

	c.Cookie(s.sessionCookie(token, int(s.sessions.ttl.Seconds())))

	return c.JSON(okBody{OK: true})
}

func (s *Server) logout(c *fiber.Ctx) error {
	expired := s.sessionCookie("", -1)
	expired.Expires = time.Unix(0, 0)
	c.Cookie(expired)

	return c.JSON(okBody{OK: true})
}
