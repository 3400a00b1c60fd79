package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
	"github.com/renderinc/brewblog/internal/sync"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, gw search.Gateway) (*Server, *storage.Store) {
	t.Helper()

	db, err := storage.Open(storage.Config{Driver: storage.DriverSQLite, Path: filepath.Join(t.TempDir(), "web.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.NewNop()
	store := storage.NewStore(db, sync.NewSynchronizer(gw, time.Second, log), log)
	_, err = store.Seed(context.Background())
	require.NoError(t, err)

	return NewServer(store, log), store
}

func do(t *testing.T, s *Server, method, target string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["search_available"])
	assert.Len(t, body["types"], 3)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())
	do(t, s, http.MethodGet, "/health", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "brewblog_http_requests_total")
}

func TestSearch_MissingTermRedirects(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	for _, path := range []string{"/breweries", "/beers", "/drinkers"} {
		rec := do(t, s, http.MethodGet, path+"/search", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, path, rec.Header().Get("Location"))

		for _, blank := range []string{"", "%20%20"} {
			rec = do(t, s, http.MethodGet, path+"/search?search_term="+blank, nil)
			assert.Equal(t, http.StatusFound, rec.Code, blank)
			assert.Equal(t, path, rec.Header().Get("Location"))
		}
	}
}

func TestDrinkerLifecycle(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	rec := do(t, s, http.MethodPost, "/drinkers", map[string]interface{}{
		"name": "Ada Porter", "city": "Portland", "state": "OR",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["data"].(map[string]interface{})
	id := int(created["id"].(float64))
	assert.Equal(t, "Portland", created["city"])

	rec = do(t, s, http.MethodGet, "/drinkers/search?search_term=ada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "ada", body["search_term"])
	assert.Equal(t, true, body["search_available"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Ada Porter", data[0].(map[string]interface{})["name"])

	target := "/drinkers/" + strconv.Itoa(id)
	rec = postForm(t, s, target+"/edit", url.Values{"name": {"Ada Stout"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada Stout", decode(t, rec)["name"])

	rec = postForm(t, s, target+"/delete", url.Values{"_method": {"DELETE"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/drinkers/search?search_term=ada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])
}

func TestDrinker_PutAndDelete(t *testing.T) {
	s, store := newTestServer(t, search.NewMemoryGateway())
	d, err := store.CreateDrinker(context.Background(), storage.NewDrinker{Name: "Bo", City: "Bend", State: "OR"})
	require.NoError(t, err)
	target := "/drinkers/" + strconv.Itoa(int(d.ID))

	rec := do(t, s, http.MethodPut, target, map[string]interface{}{"name": "Bo Jr"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bo Jr", decode(t, rec)["data"].(map[string]interface{})["name"])

	rec = do(t, s, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrinker_PostDeleteRequiresMethod(t *testing.T) {
	s, store := newTestServer(t, search.NewMemoryGateway())
	d, err := store.CreateDrinker(context.Background(), storage.NewDrinker{Name: "Cy", City: "Bend", State: "OR"})
	require.NoError(t, err)
	target := "/drinkers/" + strconv.Itoa(int(d.ID))

	rec := postForm(t, s, target+"/delete", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, s, target+"/delete", url.Values{"_method": {"PATCH"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cy", decode(t, rec)["name"])
}

func TestCreateBrewery(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	rec := postForm(t, s, "/breweries", url.Values{
		"name": {"Breakside Brewery"}, "city": {"Portland"}, "state": {"OR"},
		"website_link": {"https://breakside.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	rec = do(t, s, http.MethodGet, "/breweries/"+strconv.Itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Breakside Brewery", decode(t, rec)["name"])

	rec = do(t, s, http.MethodGet, "/breweries/search?search_term=breakside", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, s, http.MethodPost, "/breweries", map[string]interface{}{"name": "No Place"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDrinker_Validation(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	rec := do(t, s, http.MethodPost, "/drinkers", map[string]interface{}{"name": "No City"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/drinkers", map[string]interface{}{
		"name": "Lost", "city": "Atlantis", "state": "XX",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unknown state")
}

func TestBadIDIsNotFound(t *testing.T) {
	s, _ := newTestServer(t, search.NewMemoryGateway())

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/drinkers/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/breweries/0", nil).Code)
}

func TestBreweriesAndBeers(t *testing.T) {
	s, store := newTestServer(t, search.NewMemoryGateway())
	ctx := context.Background()

	b, err := store.CreateBrewery(ctx, storage.NewBrewery{Name: "Pelican Brewing", City: "Pacific City", State: "OR"})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/beers", map[string]interface{}{
		"name": "Kiwanda Cream Ale", "description": "Crisp", "brewery_id": b.ID, "style_id": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/breweries/"+strconv.Itoa(int(b.ID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Equal(t, "Pelican Brewing", detail["name"])
	assert.EqualValues(t, 1, detail["beers_count"])
	beers := detail["beers"].([]interface{})
	assert.Equal(t, "Kiwanda Cream Ale", beers[0].(map[string]interface{})["beer_name"])

	rec = do(t, s, http.MethodGet, "/breweries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	areas := decode(t, rec)["areas"].([]interface{})
	require.Len(t, areas, 1)
	assert.Equal(t, "Pacific City", areas[0].(map[string]interface{})["city"])

	rec = do(t, s, http.MethodGet, "/beers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["beers"], 1)

	rec = do(t, s, http.MethodGet, "/beers/search?search_term=kiwanda", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, s, http.MethodPost, "/beers", map[string]interface{}{
		"name": "Orphan", "description": "x", "brewery_id": 999, "style_id": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_Disabled(t *testing.T) {
	s, _ := newTestServer(t, search.Disabled{})

	rec := do(t, s, http.MethodGet, "/breweries/search?search_term=anything", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["search_available"])
	assert.EqualValues(t, 0, body["count"])
	assert.Empty(t, body["data"])

	rec = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, false, decode(t, rec)["search_available"])
}

func TestSearch_GatewayFailure(t *testing.T) {
	gw := search.NewMemoryGateway()
	gw.FailOn("query", "", errors.New("connection reset"))
	s, _ := newTestServer(t, gw)

	rec := do(t, s, http.MethodGet, "/beers/search?search_term=ipa", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWrite_IndexSyncFailureIsWarning(t *testing.T) {
	gw := search.NewMemoryGateway()
	gw.FailOn("put", "", errors.New("index down"))
	s, _ := newTestServer(t, gw)

	rec := do(t, s, http.MethodPost, "/drinkers", map[string]interface{}{
		"name": "Still Saved", "city": "Bend", "state": "OR",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Contains(t, body["warning"], "index down")
	assert.Equal(t, "Still Saved", body["data"].(map[string]interface{})["name"])

	rec = do(t, s, http.MethodGet, "/drinkers", nil)
	assert.Len(t, decode(t, rec)["drinkers"], 1)
}
