package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/mailcycle/internal/zimbra"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// mockDB implements core.DB for handler tests.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow implements pgx.Row.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// emptyRows implements pgx.Rows and yields nothing.
type emptyRows struct{}

func (emptyRows) Next() bool                                    { return false }
func (emptyRows) Scan(dest ...any) error                        { return nil }
func (emptyRows) Err() error                                    { return nil }
func (emptyRows) Close()                                        {}
func (emptyRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription  { return nil }
func (emptyRows) RawValues() [][]byte                           { return nil }
func (emptyRows) Values() ([]any, error)                        { return nil, nil }
func (emptyRows) Conn() *pgx.Conn                               { return nil }

// mockDirectory implements core.Directory for handler tests.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) SearchAccounts(ctx context.Context, p zimbra.SearchParams) (*zimbra.SearchResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zimbra.SearchResult), args.Error(1)
}

func (m *mockDirectory) GetAccount(ctx context.Context, key, by string) (*zimbra.RemoteAccount, error) {
	args := m.Called(ctx, key, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zimbra.RemoteAccount), args.Error(1)
}

func (m *mockDirectory) SetAccountStatus(ctx context.Context, zimbraID, status string) error {
	args := m.Called(ctx, zimbraID, status)
	return args.Error(0)
}

func (m *mockDirectory) GetMailboxSize(ctx context.Context, zimbraID string) (int64, error) {
	args := m.Called(ctx, zimbraID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDirectory) DeleteAccount(ctx context.Context, zimbraID string) error {
	args := m.Called(ctx, zimbraID)
	return args.Error(0)
}

func (m *mockDirectory) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
