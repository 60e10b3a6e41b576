package httpapi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	"github.com/AntonStoeckl/library-circulation-go/app/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

const (
	testUser        = "librarian"
	testPassword    = "correct horse battery staple"
	testSecret      = "a-session-secret-of-at-least-24-chars"
	testBackupToken = "backup-token"
)

type commandFunc[C shell.Command, R any] func(ctx context.Context, command C) (shell.HandlerResult[R], error)

func (f commandFunc[C, R]) Handle(ctx context.Context, command C) (shell.HandlerResult[R], error) {
	return f(ctx, command)
}

type queryFunc[Q shell.Query, R any] func(ctx context.Context, query Q) (R, error)

func (f queryFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func succeedCommand[C shell.Command, R any]() commandFunc[C, R] {
	return func(context.Context, C) (shell.HandlerResult[R], error) {
		return shell.HandlerResult[R]{RetryAttempts: 1}, nil
	}
}

func succeedQuery[Q shell.Query, R any]() queryFunc[Q, R] {
	return func(context.Context, Q) (R, error) {
		var zero R
		return zero, nil
	}
}

func defaultHandlers() httpapi.Handlers {
	return httpapi.Handlers{
		AddBook:           succeedCommand[addbook.Command, circulation.Book](),
		EditBook:          succeedCommand[editbook.Command, circulation.Book](),
		ChangeCopiesTotal: succeedCommand[changecopiestotal.Command, circulation.Book](),
		DeleteBook:        succeedCommand[deletebook.Command, uuid.UUID](),
		LendBookCopy:      succeedCommand[lendbookcopy.Command, circulation.Loan](),
		ReturnBookCopy:    succeedCommand[returnbookcopy.Command, circulation.Loan](),
		ImportLegacyBooks: succeedCommand[importlegacybooks.Command, circulation.ImportStats](),
		SearchBooks:       succeedQuery[searchbooks.Query, searchbooks.Books](),
		GetBook:           succeedQuery[getbook.Query, circulation.Book](),
		ListLoans:         succeedQuery[listloans.Query, listloans.Loans](),
		ExportCatalog:     succeedQuery[exportcatalog.Query, exportcatalog.Export](),
		Backup:            succeedQuery[backup.Query, backup.Snapshot](),
		Health:            pingFunc(func(context.Context) error { return nil }),
	}
}

var fakeClock = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, customize func(handlers *httpapi.Handlers), options ...httpapi.Option) *httpapi.Server {
	t.Helper()

	handlers := defaultHandlers()
	if customize != nil {
		customize(&handlers)
	}

	sessions, err := httpapi.NewSessions(httpapi.SessionConfig{
		User:     testUser,
		Password: testPassword,
		Secret:   testSecret,
		TTL:      7 * 24 * time.Hour,
		Now:      func() time.Time { return time.Now() },
	})
	require.NoError(t, err)

	options = append([]httpapi.Option{
		httpapi.WithBackupToken(testBackupToken),
		httpapi.WithVersion("abc123"),
		httpapi.WithEnvironment("test"),
		httpapi.WithClock(func() time.Time { return fakeClock }),
	}, options...)

	server, err := httpapi.NewServer(handlers, sessions, options...)
	require.NoError(t, err)

	return server
}

func do(t *testing.T, server *httpapi.Server, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	body := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 {
		require.NoError(t, jsoniter.Unmarshal(raw, &body), string(raw))
	}

	return resp, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func loginCookie(t *testing.T, server *httpapi.Server) *http.Cookie {
	t.Helper()

	resp, _ := do(t, server, jsonRequest(http.MethodPost, "/api/auth/login", `{"user":"librarian","pass":"correct horse battery staple"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == httpapi.SessionCookieName {
			return cookie
		}
	}

	t.Fatal("no session cookie was set")

	return nil
}

func authenticated(t *testing.T, server *httpapi.Server, req *http.Request) *http.Request {
	t.Helper()

	req.AddCookie(loginCookie(t, server))

	return req
}

func Test_Login_Sets_SessionCookie(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, jsonRequest(http.MethodPost, "/api/auth/login", `{"user":"librarian","pass":"correct horse battery staple"}`))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, httpapi.SessionCookieName+"=")
	assert.Contains(t, setCookie, "max-age=604800")
	assert.Contains(t, setCookie, "path=/")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "SameSite=Lax")
	assert.NotContains(t, setCookie, "secure")
}

func Test_Login_Rejects_WrongCredentials(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	for name, payload := range map[string]string{
		"wrong password": `{"user":"librarian","pass":"wrong"}`,
		"wrong user":     `{"user":"admin","pass":"correct horse battery staple"}`,
	} {
		t.Run(name, func(t *testing.T) {
			// act
			resp, body := do(t, server, jsonRequest(http.MethodPost, "/api/auth/login", payload))

			// assert
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, false, body["ok"])
			assert.Empty(t, resp.Header.Get("Set-Cookie"))
		})
	}
}

func Test_ProtectedRoutes_Require_Session(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	for _, route := range []struct{ method, target string }{
		{http.MethodGet, "/api/books"},
		{http.MethodPost, "/api/loans"},
		{http.MethodGet, "/api/export/books.csv"},
		{http.MethodGet, "/api/does-not-exist"},
	} {
		t.Run(route.method+" "+route.target, func(t *testing.T) {
			// act
			resp, body := do(t, server, jsonRequest(route.method, route.target, `{}`))

			// assert
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, map[string]any{"ok": false, "error": "Unauthorized"}, body)
		})
	}
}

func Test_ProtectedRoutes_Reject_ForgedToken(t *testing.T) {
	// setup
	server := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.AddCookie(&http.Cookie{Name: httpapi.SessionCookieName, Value: "eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0."})

	// act
	resp, _ := do(t, server, req)

	// assert
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_Logout_Clears_TheCookie(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, jsonRequest(http.MethodPost, "/api/auth/logout", ``))

	// assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, resp.Header.Get("Set-Cookie"), httpapi.SessionCookieName+"=;")
}

func Test_SearchBooks_Passes_TheQuery(t *testing.T) {
	// setup
	var received searchbooks.Query
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.SearchBooks = queryFunc[searchbooks.Query, searchbooks.Books](func(_ context.Context, query searchbooks.Query) (searchbooks.Books, error) {
			received = query
			return searchbooks.Books{Books: []circulation.Book{{Title: "Tehanu"}}, Count: 1}, nil
		})
	})

	// act
	resp, body := do(t, server, authenticated(t, server, httptest.NewRequest(http.MethodGet, "/api/books?q=%20earthsea%20", nil)))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "earthsea", received.Text)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "Tehanu", data[0].(map[string]any)["title"])
}

func Test_AddBook_Validates_TheBody(t *testing.T) {
	// setup
	called := false
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.AddBook = commandFunc[addbook.Command, circulation.Book](func(context.Context, addbook.Command) (shell.HandlerResult[circulation.Book], error) {
			called = true
			return shell.HandlerResult[circulation.Book]{}, nil
		})
	})

	// act
	resp, body := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/books", `{"author":"Le Guin","copies_total":0}`)))

	// assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
	assert.Contains(t, body["error"], "title is required")
	assert.Contains(t, body["error"], "copies_total")
	assert.False(t, called)
}

func Test_AddBook_Created(t *testing.T) {
	// setup
	var received addbook.Command
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.AddBook = commandFunc[addbook.Command, circulation.Book](func(_ context.Context, command addbook.Command) (shell.HandlerResult[circulation.Book], error) {
			received = command
			return shell.HandlerResult[circulation.Book]{Value: circulation.Book{ID: command.BookID, Title: command.Title}}, nil
		})
	})

	// act
	resp, body := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/books", `{"title":"Lavinia","pages":279,"copies_total":2}`)))

	// assert
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEqual(t, uuid.Nil, received.BookID)
	assert.Equal(t, 279, *received.Pages)
	assert.Equal(t, 2, *received.CopiesTotal)
	assert.Nil(t, received.Author)
	assert.Equal(t, "Lavinia", body["data"].(map[string]any)["title"])
}

func Test_EditBook_Keeps_AbsentFields(t *testing.T) {
	// setup
	var received editbook.Command
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.EditBook = commandFunc[editbook.Command, circulation.Book](func(_ context.Context, command editbook.Command) (shell.HandlerResult[circulation.Book], error) {
			received = command
			return shell.HandlerResult[circulation.Book]{}, nil
		})
	})
	bookID := uuid.New()

	// act
	resp, _ := do(t, server, authenticated(t, server, jsonRequest(http.MethodPatch, "/api/books/"+bookID.String(), `{"category":""}`)))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, bookID, received.BookID)
	assert.Nil(t, received.Title)
	assert.Nil(t, received.Author)
	require.NotNil(t, received.Category)
	assert.Equal(t, "", *received.Category)
}

func Test_BookRoutes_Reject_MalformedID(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, authenticated(t, server, httptest.NewRequest(http.MethodDelete, "/api/books/not-a-uuid", nil)))

	// assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
}

func Test_Errors_Map_ToStatusCodes(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedKind   string
		expectedError  string
	}{
		{name: "conflict", err: circulation.ErrNoCopiesAvailable, expectedStatus: http.StatusConflict, expectedKind: "conflict", expectedError: "conflict: no copies available"},
		{name: "not found", err: circulation.ErrBookNotFound, expectedStatus: http.StatusNotFound, expectedKind: "not_found", expectedError: "not found: book not found"},
		{name: "validation", err: circulation.ErrDueDateInPast, expectedStatus: http.StatusBadRequest, expectedKind: "validation", expectedError: "validation failed: due_date must not be in the past"},
		{name: "transient", err: errors.Join(errors.New("lock timeout"), circulation.ErrTransientStore), expectedStatus: http.StatusServiceUnavailable, expectedKind: "transient"},
		{name: "internal", err: errors.New("relation books does not exist"), expectedStatus: http.StatusInternalServerError, expectedKind: "internal", expectedError: "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			server := newTestServer(t, func(handlers *httpapi.Handlers) {
				handlers.LendBookCopy = commandFunc[lendbookcopy.Command, circulation.Loan](func(context.Context, lendbookcopy.Command) (shell.HandlerResult[circulation.Loan], error) {
					return shell.HandlerResult[circulation.Loan]{}, tc.err
				})
			})
			payload := `{"book_id":"` + uuid.NewString() + `","borrower":"Ged","due_date":"2026-03-20"}`

			// act
			resp, body := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/loans", payload)))

			// assert
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tc.expectedKind, body["kind"])

			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, body["error"])
			}
		})
	}
}

func Test_LendBookCopy_Uses_TheServerClock(t *testing.T) {
	// setup
	var received lendbookcopy.Command
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.LendBookCopy = commandFunc[lendbookcopy.Command, circulation.Loan](func(_ context.Context, command lendbookcopy.Command) (shell.HandlerResult[circulation.Loan], error) {
			received = command
			return shell.HandlerResult[circulation.Loan]{Value: circulation.Loan{ID: command.LoanID}}, nil
		})
	})
	bookID := uuid.New()

	// act
	resp, _ := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/loans",
		`{"book_id":"`+bookID.String()+`","borrower":"Tenar","due_date":"2026-03-24"}`)))

	// assert
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, bookID, received.BookID)
	assert.Equal(t, "2026-03-24", received.DueDate)
	assert.Equal(t, fakeClock, received.RequestedAt)
}

func Test_ListLoans_Rejects_UnknownStatus(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, authenticated(t, server, httptest.NewRequest(http.MethodGet, "/api/loans?status=lost", nil)))

	// assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
}

func Test_ImportBooks_Rejects_MalformedPayload(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/import/books", `{"books":[]}`)))

	// assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
}

func Test_ImportBooks_Returns_Stats(t *testing.T) {
	// setup
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.ImportLegacyBooks = commandFunc[importlegacybooks.Command, circulation.ImportStats](func(_ context.Context, command importlegacybooks.Command) (shell.HandlerResult[circulation.ImportStats], error) {
			return shell.HandlerResult[circulation.ImportStats]{
				Value: circulation.ImportStats{Groups: 1, Inserted: 1, RecordsProcessed: len(command.Records)},
			}, nil
		})
	})

	// act
	resp, body := do(t, server, authenticated(t, server, jsonRequest(http.MethodPost, "/api/import/books", `[{"name":"Cat"},{"name":"cat "}]`)))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total_rows"])
	assert.Equal(t, float64(1), stats["unique_titles"])
}

func Test_ExportBooksCSV_IsAnAttachment(t *testing.T) {
	// setup
	var received exportcatalog.Query
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.ExportCatalog = queryFunc[exportcatalog.Query, exportcatalog.Export](func(_ context.Context, query exportcatalog.Query) (exportcatalog.Export, error) {
			received = query
			return exportcatalog.RenderBooksCSV(nil, query.ExportedAt)
		})
	})

	// act
	resp, _ := do(t, server, authenticated(t, server, httptest.NewRequest(http.MethodGet, "/api/export/books.csv", nil)))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, exportcatalog.FormatBooksCSV, received.Format)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="books-export-2026-03-10.csv"`, resp.Header.Get("Content-Disposition"))
}

func Test_Backup_Requires_BearerToken(t *testing.T) {
	// setup
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.Backup = queryFunc[backup.Query, backup.Snapshot](func(_ context.Context, query backup.Query) (backup.Snapshot, error) {
			return backup.Snapshot{GeneratedAt: query.GeneratedAt.UTC()}, nil
		})
	})

	withoutToken := httptest.NewRequest(http.MethodGet, "/api/backup", nil)
	wrongToken := httptest.NewRequest(http.MethodGet, "/api/backup", nil)
	wrongToken.Header.Set("Authorization", "Bearer nope")
	withToken := httptest.NewRequest(http.MethodGet, "/api/backup", nil)
	withToken.Header.Set("Authorization", "Bearer "+testBackupToken)

	// act
	respWithout, _ := do(t, server, withoutToken)
	respWrong, _ := do(t, server, wrongToken)
	respWith, body := do(t, server, withToken)

	// assert
	assert.Equal(t, http.StatusUnauthorized, respWithout.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
	require.Equal(t, http.StatusOK, respWith.StatusCode)
	assert.Equal(t, `attachment; filename="backup-1773135000000.json"`, respWith.Header.Get("Content-Disposition"))
	assert.Equal(t, "2026-03-10T09:30:00Z", body["generated_at"])
}

func Test_Version_IsPublic(t *testing.T) {
	// setup
	server := newTestServer(t, nil)

	// act
	resp, body := do(t, server, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", body["commit"])
	assert.Equal(t, "test", body["env"])
	assert.Equal(t, "2026-03-10T09:30:00Z", body["ts"])
}

func Test_Health_Reports_UnreachableDatabase(t *testing.T) {
	// setup
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.Health = pingFunc(func(context.Context) error { return errors.New("connection refused") })
	})

	// act
	resp, body := do(t, server, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	// assert
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
}

func Test_NewServer_Requires_AllHandlers(t *testing.T) {
	// setup
	handlers := defaultHandlers()
	handlers.Backup = nil

	sessions, err := httpapi.NewSessions(httpapi.SessionConfig{User: testUser, Password: testPassword, Secret: testSecret})
	require.NoError(t, err)

	// act
	_, err = httpapi.NewServer(handlers, sessions)

	// assert
	assert.ErrorIs(t, err, httpapi.ErrMissingHandler)
}

func Test_Requests_Are_Logged_WithRequestID(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	server := newTestServer(t, nil, httpapi.WithLogger(slog.New(logSpy)))

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set("X-Request-ID", "req-42")

	// act
	resp, _ := do(t, server, req)

	// assert
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
	require.True(t, logSpy.HasRecord(slog.LevelInfo, "http request"))

	found := false
	for _, record := range logSpy.GetRecords() {
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == "request_id" && attr.Value.String() == "req-42" {
				found = true
			}
			return true
		})
	}

	assert.True(t, found, "request log should carry the request id")
}

func Test_InternalErrors_Are_Logged_AndHidden(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	server := newTestServer(t, func(handlers *httpapi.Handlers) {
		handlers.SearchBooks = queryFunc[searchbooks.Query, searchbooks.Books](
			func(context.Context, searchbooks.Query) (searchbooks.Books, error) {
				return searchbooks.Books{}, errors.New("relation \"books\" does not exist")
			},
		)
	}, httpapi.WithLogger(slog.New(logSpy)))

	// act
	resp, body := do(t, server, authenticated(t, server, httptest.NewRequest(http.MethodGet, "/api/books", nil)))

	// assert
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
	assert.True(t, logSpy.HasRecord(slog.LevelError, "request failed"))
}
