package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"message-stats/internal/config"
	"message-stats/internal/model"
	"message-stats/internal/query"
	"message-stats/internal/storage"
)

// fakeStore is an in-memory Store that mirrors the repository semantics:
// insertion order, uuid uniqueness, AND-combined filters.
type fakeStore struct {
	messages []model.Message
}

func (s *fakeStore) ListMessages() ([]model.Message, error) {
	return s.ListFiltered(query.Filter{})
}

func (s *fakeStore) ListFiltered(f query.Filter) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if matches(f, m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func matches(f query.Filter, m model.Message) bool {
	day := m.Date.Truncate(24 * time.Hour)
	if f.StartDate != nil && day.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && day.After(*f.EndDate) {
		return false
	}
	if f.CustomerID != 0 && m.CustomerID != f.CustomerID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	return true
}

func (s *fakeStore) GetMessageByUUID(id uuid.UUID) (*model.Message, error) {
	for i := range s.messages {
		if s.messages[i].UUID == id {
			return &s.messages[i], nil
		}
	}
	return nil, storage.ErrMessageNotFound
}

func (s *fakeStore) InsertMessage(m *model.Message) error {
	for _, existing := range s.messages {
		if existing.UUID == m.UUID {
			return storage.ErrDuplicateMessage
		}
	}
	m.Date = time.Now().UTC().Truncate(24 * time.Hour)
	s.messages = append(s.messages, *m)
	return nil
}

func seedMessage(t *testing.T, s *fakeStore, customerID int, typ, amount, id, day string) {
	t.Helper()
	a, err := model.ParseAmount(amount)
	require.NoError(t, err)
	d, err := query.ParseDate(day)
	require.NoError(t, err)
	s.messages = append(s.messages, model.Message{
		CustomerID: customerID,
		Type:       typ,
		Amount:     a,
		UUID:       uuid.MustParse(id),
		Date:       d,
	})
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	seedMessage(t, store, 1, "A", "0.012", "a596b362-08be-419f-8070-9c3055566e7c", "2023-07-01")
	seedMessage(t, store, 2, "B", "0.024", "b096b362-08be-419f-8070-9c3055566e7c", "2023-07-02")
	seedMessage(t, store, 3, "A", "0.036", "c596b362-08be-419f-8070-9c3055566e7c", "2023-07-03")
	seedMessage(t, store, 4, "B", "0.048", "d596b362-08be-419f-8070-9c3055566e7c", "2023-07-04")

	srv := httptest.NewServer(NewAPI(store, &config.Config{}).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestListMessages(t *testing.T) {
	srv, _ := newTestServer(t)

	var got []map[string]interface{}
	status := getJSON(t, srv.URL+"/", &got)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 4)
	assert.Equal(t, map[string]interface{}{
		"customerid": float64(1),
		"type":       "A",
		"amount":     "0.012",
		"uuid":       "a596b362-08be-419f-8070-9c3055566e7c",
	}, got[0])
}

func TestCreateMessage(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"customerid":5,"type":"C","amount":"0.060","uuid":"e596b362-08be-419f-8070-9c3055566e7c"}`
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "0.060", got["amount"])
	assert.Equal(t, "e596b362-08be-419f-8070-9c3055566e7c", got["uuid"])
	assert.NotContains(t, got, "date")

	// The record is queryable afterwards.
	stored, err := store.GetMessageByUUID(uuid.MustParse("e596b362-08be-419f-8070-9c3055566e7c"))
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CustomerID)
	assert.False(t, stored.Date.IsZero())
}

func TestCreateMessageDuplicate(t *testing.T) {
	srv, store := newTestServer(t)
	before := len(store.messages)

	body := `{"customerid":1,"type":"A","amount":"0.012","uuid":"a596b362-08be-419f-8070-9c3055566e7c"}`
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Message already exists", got["detail"])
	assert.Len(t, store.messages, before)
}

func TestCreateMessageBadPrecision(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"customerid":5,"type":"C","amount":"0.06","uuid":"f596b362-08be-419f-8070-9c3055566e7c"}`
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateMessageMissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"customerid":5,"amount":"0.060"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	var got map[string]interface{}
	status := getJSON(t, srv.URL+"/message/a596b362-08be-419f-8070-9c3055566e7c", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.012", got["amount"])
	assert.Equal(t, "A", got["type"])
}

func TestGetMessageNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var got map[string]string
	status := getJSON(t, srv.URL+"/message/00000000-0000-0000-0000-000000000000", &got)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Message not found", got["detail"])
}

func TestGetMessageInvalidUUID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/message/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListFilteredMessages(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name  string
		query string
		want  []string // expected customer uuids, in order
	}{
		{
			name:  "date range",
			query: "start_date=2023-07-01&end_date=2023-07-02",
			want:  []string{"a596b362-08be-419f-8070-9c3055566e7c", "b096b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "start date only",
			query: "start_date=2023-07-03",
			want:  []string{"c596b362-08be-419f-8070-9c3055566e7c", "d596b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "end date only",
			query: "end_date=2023-07-01",
			want:  []string{"a596b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "customer and type",
			query: "customerid=1&type=A",
			want:  []string{"a596b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "type only",
			query: "type=A",
			want:  []string{"a596b362-08be-419f-8070-9c3055566e7c", "c596b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "all filters",
			query: "customerid=1&type=A&start_date=2023-07-01&end_date=2023-07-01",
			want:  []string{"a596b362-08be-419f-8070-9c3055566e7c"},
		},
		{
			name:  "no filters returns everything",
			query: "",
			want: []string{
				"a596b362-08be-419f-8070-9c3055566e7c",
				"b096b362-08be-419f-8070-9c3055566e7c",
				"c596b362-08be-419f-8070-9c3055566e7c",
				"d596b362-08be-419f-8070-9c3055566e7c",
			},
		},
		{
			name:  "zero customerid is ignored",
			query: "customerid=0",
			want: []string{
				"a596b362-08be-419f-8070-9c3055566e7c",
				"b096b362-08be-419f-8070-9c3055566e7c",
				"c596b362-08be-419f-8070-9c3055566e7c",
				"d596b362-08be-419f-8070-9c3055566e7c",
			},
		},
		{
			name:  "no match",
			query: "customerid=99",
			want:  []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []map[string]interface{}
			status := getJSON(t, srv.URL+"/messages/?"+tc.query, &got)
			require.Equal(t, http.StatusOK, status)
			require.Len(t, got, len(tc.want))
			for i, id := range tc.want {
				assert.Equal(t, id, got[i]["uuid"])
			}
		})
	}
}

func TestListFilteredMessagesBadDate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/messages/?start_date=2023-7-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

type statsPayload struct {
	Messages      []map[string]interface{} `json:"messages"`
	MessagesCount int                      `json:"messages_count"`
	TotalAmount   string                   `json:"total_amount"`
}

func TestGetStats(t *testing.T) {
	srv, _ := newTestServer(t)

	var got statsPayload
	status := getJSON(t, srv.URL+"/stats/?customerid=1&type=A&start_date=2023-07-01&end_date=2023-07-01", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, got.MessagesCount)
	assert.Equal(t, "0.012", got.TotalAmount)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "a596b362-08be-419f-8070-9c3055566e7c", got.Messages[0]["uuid"])
}

func TestGetStatsUnfiltered(t *testing.T) {
	srv, _ := newTestServer(t)

	var got statsPayload
	status := getJSON(t, srv.URL+"/stats/", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, got.MessagesCount)
	assert.Len(t, got.Messages, got.MessagesCount)
	// 0.012 + 0.024 + 0.036 + 0.048, summed in decimal arithmetic.
	assert.Equal(t, "0.120", got.TotalAmount)
}

func TestGetStatsEmptyResult(t *testing.T) {
	srv, _ := newTestServer(t)

	var got statsPayload
	status := getJSON(t, srv.URL+"/stats/?customerid=99", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, got.MessagesCount)
	assert.Equal(t, "0.000", got.TotalAmount)
	assert.NotNil(t, got.Messages)
}

func TestFilterOrderIndependence(t *testing.T) {
	srv, _ := newTestServer(t)

	// The same constraints in any parameter order produce the same set.
	queries := []string{
		"customerid=1&type=A&start_date=2023-07-01&end_date=2023-07-01",
		"end_date=2023-07-01&type=A&start_date=2023-07-01&customerid=1",
		"type=A&customerid=1&end_date=2023-07-01&start_date=2023-07-01",
	}
	var first []map[string]interface{}
	for i, q := range queries {
		var got []map[string]interface{}
		status := getJSON(t, srv.URL+"/messages/?"+q, &got)
		require.Equal(t, http.StatusOK, status)
		if i == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got, fmt.Sprintf("query %q", q))
	}
}
