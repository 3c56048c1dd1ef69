package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trackplan/pkg/buildinfo"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/observability"
	"github.com/matzehuels/trackplan/pkg/obstacle"
	"github.com/matzehuels/trackplan/pkg/session"
)

var quiet = log.New(io.Discard)

func newTestSession(t *testing.T, m *mapdata.Map) *session.Session {
	t.Helper()
	s, err := session.New(m, session.Options{
		Logger:    quiet,
		Scheduler: obstacle.NewManualScheduler(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestServer(t *testing.T, m *mapdata.Map, opts Options) (*httptest.Server, *session.Session) {
	t.Helper()
	s := newTestSession(t, m)
	opts.Logger = quiet
	ts := httptest.NewServer(New(s, opts).Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/path"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) pathReply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply pathReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(data, &body), "body: %s", data)
	return body
}

func openMap(w, h int, walls ...grid.Cell) *mapdata.Map {
	return &mapdata.Map{Name: "test", Width: w, Height: h, Walls: walls}
}

func TestHealth(t *testing.T) {
	ts, s := newTestServer(t, openMap(5, 5), Options{})

	resp, data := get(t, ts, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, s.ID(), body.Session)
	assert.False(t, body.Active)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, buildinfo.UserAgent(), resp.Header.Get("Server"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestNotInitialized(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})

	resp, data := get(t, ts, "/map")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(errs.ErrCodeNotInitialized), decodeError(t, data).Code)

	resp, data = post(t, ts, "/step", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(errs.ErrCodeNotInitialized), decodeError(t, data).Code)
}

func TestPathSocket(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)

	reply := roundTrip(t, conn, `{"start":[[0,0],[4,0]],"goal":[0,4]}`)
	require.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)
	assert.Equal(t, eventPath, reply.Event)
	require.NotNil(t, reply.Car)
	assert.Equal(t, 0, *reply.Car)
	require.NotEmpty(t, reply.Path)
	assert.Equal(t, grid.C(0, 0), reply.Path[0])
	assert.Equal(t, grid.C(0, 4), reply.Path[len(reply.Path)-1])
	assert.NotContains(t, reply.Path, grid.C(4, 0))

	resp, data := get(t, ts, "/map")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 5, snap.Width)
	assert.Equal(t, grid.C(0, 0), snap.Start)
	assert.Equal(t, grid.C(0, 4), snap.Goal)
	assert.Equal(t, reply.Path, snap.Path)
	assert.True(t, snap.Masked.Has(grid.C(4, 0)))
}

func TestPathSocketStaysOpenAfterErrors(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)

	reply := roundTrip(t, conn, `not json`)
	assert.Equal(t, typeError, reply.Type)
	assert.Equal(t, string(errs.ErrCodeInvalidRequest), reply.Code)

	reply = roundTrip(t, conn, `{"start":[],"goal":[1,1]}`)
	assert.Equal(t, typeError, reply.Type)
	assert.Equal(t, string(errs.ErrCodeInvalidRequest), reply.Code)

	reply = roundTrip(t, conn, `{"start":[[0,0]],"goal":[9,9]}`)
	assert.Equal(t, typeError, reply.Type)
	assert.Equal(t, string(errs.ErrCodeInvalidRequest), reply.Code)

	reply = roundTrip(t, conn, `{"start":[[0,0]],"goal":[2,2]}`)
	assert.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)
	assert.Equal(t, grid.C(2, 2), reply.Path[len(reply.Path)-1])
}

func TestPathSocketUnreachable(t *testing.T) {
	m := openMap(5, 5, grid.C(3, 3), grid.C(3, 4), grid.C(4, 3))
	ts, s := newTestServer(t, m, Options{})
	conn := dial(t, ts)

	reply := roundTrip(t, conn, `{"start":[[0,0]],"goal":[4,4]}`)
	assert.Equal(t, typeError, reply.Type)
	assert.Equal(t, string(errs.ErrCodeUnreachableGoal), reply.Code)
	assert.Empty(t, reply.Path)
	assert.False(t, s.Active())
}

func TestPathSocketTemporaryObstacle(t *testing.T) {
	ts, s := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)

	reply := roundTrip(t, conn, `{"start":[[0,2]],"goal":[4,2],"new_wall":[2,2]}`)
	require.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)
	assert.Equal(t, []grid.Cell{grid.C(0, 2), grid.C(1, 2), grid.C(2, 2), grid.C(3, 2), grid.C(4, 2)}, reply.Path)
	assert.Equal(t, []grid.Cell{grid.C(2, 2)}, s.PendingObstacles())

	// The next request plans around it.
	reply = roundTrip(t, conn, `{"start":[[0,2]],"goal":[4,2]}`)
	require.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)
	assert.NotContains(t, reply.Path, grid.C(2, 2))
}

func TestUpdateMapAndStep(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)
	reply := roundTrip(t, conn, `{"start":[[0,0]],"goal":[0,4]}`)
	require.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)

	resp, data := post(t, ts, "/update-map", `{"cell":[3,3]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)
	var upd updateMapResponse
	require.NoError(t, json.Unmarshal(data, &upd))
	assert.Equal(t, "map updated", upd.Message)
	assert.Equal(t, grid.C(3, 3), upd.Cell)
	assert.True(t, upd.Blocked)
	assert.True(t, upd.Replanned)
	assert.True(t, upd.Reached)

	resp, data = post(t, ts, "/step", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)
	var step session.StepResult
	require.NoError(t, json.Unmarshal(data, &step))
	assert.Equal(t, reply.Path[1], step.Start)
	assert.Equal(t, []grid.Cell{reply.Path[1]}, step.Visited)
	assert.False(t, step.Finished)
	assert.True(t, step.Reached)
}

func TestUpdateMapReportsShortRoute(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)
	reply := roundTrip(t, conn, `{"start":[[0,0]],"goal":[4,4]}`)
	require.Equal(t, typeSuccess, reply.Type, "error: %s", reply.Error)

	resp, data := post(t, ts, "/update-map", `{"cell":[2,2]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)
	var upd updateMapResponse
	require.NoError(t, json.Unmarshal(data, &upd))
	assert.Equal(t, []grid.Cell{grid.C(0, 0), grid.C(1, 1)}, upd.Path)
	assert.False(t, upd.Reached)
	assert.Contains(t, string(data), `"reached":false`)
}

func TestUpdateMapRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"cell":`},
		{"missing cell", `{}`},
		{"unknown field", `{"cell":[1,1],"x":1}`},
		{"out of bounds", `{"cell":[5,0]}`},
		{"bad cell", `{"cell":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, ts, "/update-map", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, string(errs.ErrCodeInvalidRequest), decodeError(t, data).Code)
		})
	}
}

func TestUpdateMapWithoutPlanner(t *testing.T) {
	ts, s := newTestServer(t, openMap(5, 5), Options{})

	resp, data := post(t, ts, "/update-map", `{"cell":[1,1]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)
	assert.True(t, s.Obstacles().Has(grid.C(1, 1)))
	assert.False(t, s.Active())
}

func TestReset(t *testing.T) {
	ts, s := newTestServer(t, openMap(5, 5), Options{})
	conn := dial(t, ts)
	reply := roundTrip(t, conn, `{"start":[[0,0]],"goal":[4,4]}`)
	require.Equal(t, typeSuccess, reply.Type)
	resp, _ := post(t, ts, "/update-map", `{"cell":[1,1]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := post(t, ts, "/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"planner reset"}`, string(data))
	assert.False(t, s.Active())
	assert.True(t, s.Obstacles().Has(grid.C(1, 1)), "reset dropped a manual wall")

	resp, _ = get(t, ts, "/map")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})

	resp, data := get(t, ts, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(errs.ErrCodeNotFound), decodeError(t, data).Code)

	resp, _ = get(t, ts, "/step")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/update-map", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecovererAnswersInternalError(t *testing.T) {
	srv := New(newTestSession(t, openMap(3, 3)), Options{Logger: quiet})
	h := srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(errs.ErrCodeInternal), decodeError(t, rec.Body.Bytes()).Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.SetHTTPHooks(observability.NewPrometheus(reg))
	t.Cleanup(observability.Reset)

	ts, _ := newTestServer(t, openMap(5, 5), Options{
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	get(t, ts, "/healthz")

	resp, data := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `trackplan_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	ts, _ := newTestServer(t, openMap(5, 5), Options{})
	resp, _ := get(t, ts, "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := New(newTestSession(t, openMap(3, 3)), Options{Logger: quiet})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func writeMap(t *testing.T, path string, m *mapdata.Map) {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"width":  m.Width,
		"height": m.Height,
		"walls":  m.Walls,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestMapWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapa.json")
	writeMap(t, path, openMap(5, 5))

	m, err := mapdata.LoadFile(path)
	require.NoError(t, err)
	s := newTestSession(t, m)

	w := NewMapWatcher(path, s, quiet)
	w.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	}

	writeMap(t, filepath.Join(dir, "other.json"), openMap(9, 9))
	writeMap(t, path, openMap(7, 6, grid.C(2, 2)))

	require.Eventually(t, func() bool {
		return s.Map().Width == 7
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 6, s.Map().Height)
	assert.True(t, s.Obstacles().Has(grid.C(2, 2)))
}
