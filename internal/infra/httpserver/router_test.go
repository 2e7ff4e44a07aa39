package httpserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	appadvisor "github.com/bryanwahyu/wifi-survey/internal/application/advisor"
	appenv "github.com/bryanwahyu/wifi-survey/internal/application/environments"
	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	appusers "github.com/bryanwahyu/wifi-survey/internal/application/users"
	"github.com/bryanwahyu/wifi-survey/internal/infra/db/memory"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
	"github.com/bryanwahyu/wifi-survey/internal/middleware"
)

const csvBody = "bssid,ssid,quality,signal,channel,encryption,timestamp\n" +
	"aa:bb:cc:dd:ee:01,Office,70,-40,6,WPA2,2024-01-15 10:30:00\n" +
	"aa:bb:cc:dd:ee:02,Guest,50,-60,11,Open,2024-01-15 10:31:00\n"

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newServer(t *testing.T) *client {
	t.Helper()
	st := memory.New()
	clock := application.FixedClock{T: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)}
	log := logger.NewNop()

	h := NewRouter(Deps{
		Surveys:        appsurveys.NewService(st, nil, clock, middleware.IngestRecorder{}, log),
		Environments:   appenv.NewService(st, clock, log),
		Users:          appusers.NewService(st, clock, log, bcrypt.MinCost),
		Advisor:        appadvisor.NewService(nil, st, clock, log),
		Checkers:       map[string]middleware.HealthChecker{"database": middleware.PingChecker{Target: st}},
		Log:            log,
		MaxUploadBytes: 4096,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}
}

func (c *client) do(method, path, user string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, "secret1")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (*http.Response, map[string]any) {
	c.t.Helper()
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw json.RawMessage
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&raw))
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (c *client) upload(user, path, name, content string) (*http.Response, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("csv_file", name)
	require.NoError(c.t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(user, "secret1")
	return c.send(req)
}

func (c *client) register(name string) {
	c.t.Helper()
	resp, _ := c.do(http.MethodPost, "/v1/register", "", map[string]string{"username": name, "password": "secret1"})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	c := newServer(t)

	resp, _ := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, _ = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	c := newServer(t)

	resp, body := c.do(http.MethodGet, "/v1/environments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "missing credentials", body["error"])

	c.register("admin")
	req, _ := http.NewRequest(http.MethodGet, c.srv.URL+"/v1/environments", nil)
	req.SetBasicAuth("admin", "wrong-password")
	resp, _ = c.send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	c := newServer(t)

	resp, body := c.do(http.MethodPost, "/v1/register", "", map[string]string{"username": "ab", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation failed", body["error"])
	assert.Len(t, body["details"], 2)
}

func TestPendingUserFlow(t *testing.T) {
	c := newServer(t)
	c.register("admin")
	c.register("bob")

	resp, _ := c.do(http.MethodGet, "/v1/environments", "bob", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/v1/admin/dashboard", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/v1/admin/users/2/approve", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/v1/environments", "bob", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/v1/admin/users", "bob", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = c.do(http.MethodPut, "/v1/admin/users/1/role", "admin", map[string]string{"role": "user"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "admins cannot change their own role")

	resp, body := c.do(http.MethodPut, "/v1/admin/users/2/role", "admin", map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation failed", body["error"])
}

func TestUploadAndBrowse(t *testing.T) {
	c := newServer(t)
	c.register("admin")

	resp, env := c.do(http.MethodPost, "/v1/environments", "admin", map[string]string{"name": "HQ"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "HQ", env["name"])

	resp, _ = c.do(http.MethodPost, "/v1/environments", "admin", map[string]string{"name": "HQ"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := c.upload("admin", "/v1/environments/1/uploads", "scan.csv", csvBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])
	assert.EqualValues(t, 2, body["accepted"])

	resp, body = c.upload("admin", "/v1/environments/1/uploads", "scan.csv", csvBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "duplicates_only", body["status"])
	assert.Equal(t, "No new scans to upload. All 2 scans were duplicates.", body["message"])

	bad := "bssid,ssid,quality,signal,channel,encryption,timestamp\nnot-a-mac,X,1,1,1,Open,2024-01-15 10:30:00\n"
	resp, body = c.upload("admin", "/v1/environments/1/uploads", "scan.csv", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "rejected", body["status"])

	resp, _ = c.upload("admin", "/v1/environments/1/uploads", "scan.txt", csvBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.upload("admin", "/v1/environments/1/uploads", "big.csv", strings.Repeat("x", 8192))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = c.upload("admin", "/v1/environments/9/uploads", "scan.csv", csvBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, page := c.do(http.MethodGet, "/v1/environments/1/scans?q=guest", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, page["totalItems"])

	resp, _ = c.do(http.MethodPut, "/v1/scans/1/rogue", "admin", map[string]bool{"rogue_ap_potential": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, page = c.do(http.MethodGet, "/v1/environments/1/scans?rogue=true", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, page["totalItems"])

	resp, rec := c.do(http.MethodPut, "/v1/scans/2/remarks", "admin", map[string]string{"remarks": "lobby"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lobby", rec["remarks"])

	resp, _ = c.do(http.MethodPut, "/v1/scans/99/rogue", "admin", map[string]bool{"rogue_ap_potential": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/v1/scans/rogue", "admin", map[string]any{"ids": []int{1, 2}, "rogue_ap_potential": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["updated"])

	resp, _ = c.do(http.MethodGet, "/v1/environments/1/uploads", "admin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, detail := c.do(http.MethodGet, "/v1/environments/1", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, detail["recent_uploads"], 3)
}

func TestExportCSV(t *testing.T) {
	c := newServer(t)
	c.register("admin")
	c.do(http.MethodPost, "/v1/environments", "admin", map[string]string{"name": "Lab 2"})
	resp, _ := c.upload("admin", "/v1/environments/1/uploads", "scan.csv", csvBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, c.srv.URL+"/v1/environments/1/export?format=csv", nil)
	req.SetBasicAuth("admin", "secret1")
	resp, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "wifi_scan_report_")
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.True(t, strings.HasPrefix(buf.String(), "bssid,ssid,quality"))

	resp2, body := c.do(http.MethodGet, "/v1/environments/1/export?format=pdf", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Contains(t, body["error"], "unsupported report format")
}

func TestAdviceDisabled(t *testing.T) {
	c := newServer(t)
	c.register("admin")
	c.do(http.MethodPost, "/v1/environments", "admin", map[string]string{"name": "HQ"})

	resp, _ := c.do(http.MethodPost, "/v1/environments/1/advice", "admin", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDeleteEnvironment(t *testing.T) {
	c := newServer(t)
	c.register("admin")
	c.do(http.MethodPost, "/v1/environments", "admin", map[string]string{"name": "HQ"})
	c.upload("admin", "/v1/environments/1/uploads", "scan.csv", csvBody)

	resp, body := c.do(http.MethodDelete, "/v1/environments/1", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["scans_deleted"])

	resp, _ = c.do(http.MethodGet, "/v1/environments/1", "admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/v1/environments/abc", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
