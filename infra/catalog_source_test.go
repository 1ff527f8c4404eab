package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/jobs"
)

func testConnection(baseURL string) *entity.Connection {
	return &entity.Connection{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Name:           "test store",
		BaseURL:        baseURL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
	}
}

func TestSourceClientListPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)

		query := r.URL.Query()
		assert.Equal(t, "2", query.Get("page"))
		assert.Equal(t, "50", query.Get("per_page"))
		assert.Equal(t, "true", query.Get("in_stock"))
		assert.Equal(t, "ck_test", query.Get("consumer_key"))
		assert.Equal(t, "cs_test", query.Get("consumer_secret"))

		w.Header().Set("X-Total-Count", "120")
		w.Header().Set("X-Total-Pages", "3")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]jobs.SourceProduct{
			{ExternalID: 7, Name: "Widget", Type: "simple", Price: "4.50", InStock: true},
		})
	}))
	defer server.Close()

	client := InitSourceClient()
	page, err := client.ListPage(context.Background(), testConnection(server.URL), 2, 50, true)
	require.NoError(t, err)

	assert.Equal(t, 120, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(7), page.Items[0].ExternalID)
	assert.Equal(t, "Widget", page.Items[0].Name)
}

func TestSourceClientListPageTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := InitSourceClient()
	_, err := client.ListPage(context.Background(), testConnection(server.URL+"/"), 1, 10, false)
	require.NoError(t, err)
}

func TestSourceClientListChildren(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/42/variations", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]jobs.SourceProduct{
			{ExternalID: 421, Price: "5.00", Attributes: []jobs.SourceAttribute{{Name: "Size", Option: "L"}}},
			{ExternalID: 422, Price: "5.50"},
		})
	}))
	defer server.Close()

	client := InitSourceClient()
	children, err := client.ListChildren(context.Background(), testConnection(server.URL), 42)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "L", children[0].Attributes[0].Option)
}

func TestSourceClientUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := InitSourceClient()
	_, err := client.ListPage(context.Background(), testConnection(server.URL), 1, 10, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSourceClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := InitSourceClient()
	_, err := client.ListChildren(context.Background(), testConnection(server.URL), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}
