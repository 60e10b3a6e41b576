package httpapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/importlegacybooks"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/backup"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/exportcatalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

type versionBody struct {
	OK     bool      `json:"ok"`
	Commit string    `json:"commit"`
	Env    string    `json:"env"`
	TS     time.Time `json:"ts"`
}

type healthBody struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
}

type importBody struct {
	OK    bool                    `json:"ok"`
	Stats circulation.ImportStats `json:"stats"`
}

func attachment(c *fiber.Ctx, contentType string, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	return c.Send(body)
}

func (s *Server) versionInfo(c *fiber.Ctx) error {
	return c.JSON(versionBody{OK: true, Commit: s.version, Env: s.environment, TS: s.now().UTC()})
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.handlers.Health.Ping(c.UserContext()); err != nil {
		s.logError(c.UserContext(), "health check failed", err)

		return c.Status(fiber.StatusServiceUnavailable).JSON(healthBody{OK: false, Database: "unreachable"})
	}

	return c.JSON(healthBody{OK: true, Database: "ok"})
}

func (s *Server) backup(c *fiber.Ctx) error {
	if !s.hasBackupToken(c) {
		return unauthorized(c)
	}

	snapshot, err := s.handlers.Backup.Handle(c.UserContext(), backup.BuildQuery(s.now()))
	if err != nil {
		return err
	}

	body, err := snapshot.MarshalIndented()
	if err != nil {
		return err
	}

	return attachment(c, fiber.MIMEApplicationJSONCharsetUTF8, snapshot.Filename(), body)
}

func (s *Server) importBooks(c *fiber.Ctx) error {
	records, err := importlegacybooks.DecodeLegacyBatch(c.Body())
	if err != nil {
		return err
	}

	result, err := s.handlers.ImportLegacyBooks.Handle(c.UserContext(), importlegacybooks.BuildCommand(records))
	if err != nil {
		return err
	}

	return c.JSON(importBody{OK: true, Stats: result.Value})
}

func (s *Server) export(format exportcatalog.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		export, err := s.handlers.ExportCatalog.Handle(c.UserContext(), exportcatalog.BuildQuery(format, s.now()))
		if err != nil {
			return err
		}

		return attachment(c, export.ContentType, export.Filename, export.Body)
	}
}
