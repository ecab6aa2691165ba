package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"daycare/internal/core"
)

type fakeSheets struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	header   [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-id",
			"updates":       map[string]any{"updatedRange": "Ledger!A7:H7", "updatedRows": 1},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Ledger!A1:H1", "values": f.header})
	case r.Method == http.MethodPut:
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Ledger!A1:H1"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id", "Ledger", nil)
}

func TestAppendEntry(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)

	ref, err := c.AppendEntry(context.Background(), core.LedgerEntry{
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600)),
		Entity:    "expense",
		Action:    "created",
		ID:        12,
		Date:      "2024-03-01",
		Label:     "Food / Costco",
		Amount:    42.1,
		Personal:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ledger!A7:H7", ref)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Contains(t, req.URL.Path, "/v4/spreadsheets/sheet-id/values/")
	assert.Equal(t, "USER_ENTERED", req.URL.Query().Get("valueInputOption"))
	assert.Equal(t, "INSERT_ROWS", req.URL.Query().Get("insertDataOption"))

	var vr struct {
		Values [][]any `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(fake.bodies[0]), &vr))
	require.Len(t, vr.Values, 1)
	assert.Equal(t, []any{"2024-03-01T14:30:00Z", "expense", "created", "12", "2024-03-01", "Food / Costco", -42.1, "yes"}, vr.Values[0])
}

func TestEnsureHeader(t *testing.T) {
	t.Run("empty sheet gets a header", func(t *testing.T) {
		fake := &fakeSheets{}
		c := newFakeClient(t, fake)
		require.NoError(t, c.EnsureHeader(context.Background()))
		require.Len(t, fake.requests, 2)
		assert.Equal(t, http.MethodPut, fake.requests[1].Method)
		assert.Contains(t, fake.bodies[1], "Timestamp")
	})

	t.Run("existing header is left alone", func(t *testing.T) {
		fake := &fakeSheets{header: [][]any{{"Timestamp", "Entity"}}}
		c := newFakeClient(t, fake)
		require.NoError(t, c.EnsureHeader(context.Background()))
		assert.Len(t, fake.requests, 1)
	})
}

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		entity, action string
		want           float64
	}{
		{"income", "created", 10},
		{"income", "updated", 10},
		{"income", "deleted", -10},
		{"expense", "created", -10},
		{"expense", "deleted", 10},
	}
	for _, tc := range cases {
		got := signedAmount(core.LedgerEntry{Entity: tc.entity, Action: tc.action, Amount: 10})
		assert.Equal(t, tc.want, got, "%s %s", tc.entity, tc.action)
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing spreadsheet ID")

	_, err = New(context.Background(), Options{SpreadsheetID: "id"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestLoadCredentialsPrefersInlineJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from":"file"}`), 0o600))

	data, err := loadCredentials(Options{CredentialsJSON: `{"from":"env"}`, CredentialsFile: file})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"env"}`, string(data))

	data, err = loadCredentials(Options{CredentialsFile: file})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(data))
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheet: "Ledger"}
	_, err := c.AppendEntry(context.Background(), core.LedgerEntry{})
	require.Error(t, err)
	assert.Error(t, c.EnsureHeader(context.Background()))
}
