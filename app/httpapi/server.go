package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/changecopiestotal"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/deletebook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/editbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/importlegacybooks"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/lendbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/returnbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/backup"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/exportcatalog"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/getbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/listloans"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/searchbooks"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultBodyLimit      = 8 * 1024 * 1024
)

var ErrMissingHandler = errors.New("httpapi: every handler must be set")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pinger checks that the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers are the use cases behind the routes, usually wrapped by the observable package.
type Handlers struct {
	AddBook           shell.CommandHandler[addbook.Command, circulation.Book]
	EditBook          shell.CommandHandler[editbook.Command, circulation.Book]
	ChangeCopiesTotal shell.CommandHandler[changecopiestotal.Command, circulation.Book]
	DeleteBook        shell.CommandHandler[deletebook.Command, uuid.UUID]
	LendBookCopy      shell.CommandHandler[lendbookcopy.Command, circulation.Loan]
	ReturnBookCopy    shell.CommandHandler[returnbookcopy.Command, circulation.Loan]
	ImportLegacyBooks shell.CommandHandler[importlegacybooks.Command, circulation.ImportStats]

	SearchBooks   shell.QueryHandler[searchbooks.Query, searchbooks.Books]
	GetBook       shell.QueryHandler[getbook.Query, circulation.Book]
	ListLoans     shell.QueryHandler[listloans.Query, listloans.Loans]
	ExportCatalog shell.QueryHandler[exportcatalog.Query, exportcatalog.Export]
	Backup        shell.QueryHandler[backup.Query, backup.Snapshot]

	Health Pinger
}

func (h Handlers) complete() bool {
	return h.AddBook != nil && h.EditBook != nil && h.ChangeCopiesTotal != nil && h.DeleteBook != nil &&
		h.LendBookCopy != nil && h.ReturnBookCopy != nil && h.ImportLegacyBooks != nil &&
		h.SearchBooks != nil && h.GetBook != nil && h.ListLoans != nil && h.ExportCatalog != nil &&
		h.Backup != nil && h.Health != nil
}

// Server routes HTTP requests to the use case handlers.
type Server struct {
	app            *fiber.App
	handlers       Handlers
	sessions       *Sessions
	validate       *validator.Validate
	backupToken    string
	version        string
	environment    string
	requestTimeout time.Duration
	now            func() time.Time
	logger         circulation.Logger
	contextLogger  circulation.ContextualLogger
}

// Option configures a Server.
type Option func(*Server) error

// WithBackupToken enables GET /api/backup for requests carrying "Authorization: Bearer <token>".
func WithBackupToken(token string) Option {
	return func(s *Server) error {
		s.backupToken = token
		return nil
	}
}

// WithVersion sets the commit or version reported by GET /api/version.
func WithVersion(version string) Option {
	return func(s *Server) error {
		s.version = version
		return nil
	}
}

// WithEnvironment sets the environment name reported by GET /api/version.
func WithEnvironment(environment string) Option {
	return func(s *Server) error {
		s.environment = environment
		return nil
	}
}

// WithRequestTimeout bounds the time a request may spend in its handler.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return errors.New("request timeout must be positive")
		}

		s.requestTimeout = timeout

		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) error {
		s.now = now
		return nil
	}
}

// WithLogger sets a logger for request and error logs.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for request and error logs.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Server) error {
		s.contextLogger = logger
		return nil
	}
}

// NewServer builds the fiber app with all routes registered.
func NewServer(handlers Handlers, sessions *Sessions, options ...Option) (*Server, error) {
	if !handlers.complete() {
		return nil, ErrMissingHandler
	}

	if sessions == nil {
		return nil, ErrSessionNotConfigured
	}

	s := &Server{
		handlers:       handlers,
		sessions:       sessions,
		validate:       newValidator(),
		version:        "dev",
		environment:    "development",
		requestTimeout: defaultRequestTimeout,
		now:            time.Now,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "librarydesk",
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             defaultBodyLimit,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(s.requestContext)
	s.app.Use(recover.New())

	s.routes()

	return s, nil
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/auth/login", s.login)
	api.Post("/auth/logout", s.logout)
	api.Get("/version", s.versionInfo)
	api.Get("/health", s.health)
	api.Get("/backup", s.backup)

	api.Get("/books", s.requireSession, s.searchBooks)
	api.Post("/books", s.requireSession, s.addBook)
	api.Get("/books/:id", s.requireSession, s.getBook)
	api.Patch("/books/:id", s.requireSession, s.editBook)
	api.Put("/books/:id/copies", s.requireSession, s.changeCopiesTotal)
	api.Delete("/books/:id", s.requireSession, s.deleteBook)

	api.Get("/loans", s.requireSession, s.listLoans)
	api.Post("/loans", s.requireSession, s.lendBookCopy)
	api.Post("/loans/:id/return", s.requireSession, s.returnBookCopy)

	api.Post("/import/books", s.requireSession, s.importBooks)

	api.Get("/export/books", s.requireSession, s.export(exportcatalog.FormatBooksJSON))
	api.Get("/export/books.csv", s.requireSession, s.export(exportcatalog.FormatBooksCSV))
	api.Get("/export/loans", s.requireSession, s.export(exportcatalog.FormatLoansJSON))

	api.Use(s.requireSession, func(*fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// App exposes the fiber app, for tests and for mounting.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for open requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
