package live_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/pkg/live"
	"github.com/delaneyj/signalbind/pkg/metrics"
	"github.com/delaneyj/signalbind/vm"
)

const page = `<div id="app"><h1>{{ title }}</h1><input id="box" v-model:value="title"></div>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _, _ := newServerWith(t, page, map[string]any{"title": "hello"})
	return srv
}

func newServerWith(t *testing.T, markup string, data map[string]any) (*httptest.Server, *metrics.Meter, *vm.VM) {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)

	m := metrics.New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	v, err := vm.New(context.Background(), doc, vm.Options{
		Root:  "#app",
		Data:  data,
		Meter: m,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(live.New(v, live.WithGatherer(reg)).Handler())
	t.Cleanup(srv.Close)
	return srv, m, v
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var rep live.Reply
	require.NoError(t, conn.ReadJSON(&rep))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) live.Reply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	var rep live.Reply
	require.NoError(t, conn.ReadJSON(&rep))
	return rep
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestPage(t *testing.T) {
	srv := newServer(t)
	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `<div id="app"><h1>hello</h1><input id="box"></div>`, body)
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	_, body = get(t, srv.URL+"/state")
	state := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, map[string]any{"title": "hello"}, state)
}

func TestSocket(t *testing.T) {
	srv := newServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var rep live.Reply
	require.NoError(t, conn.ReadJSON(&rep))
	assert.Equal(t, `<div id="app"><h1>hello</h1><input id="box"></div>`, rep.HTML)
	initial := rep.Fingerprint

	require.NoError(t, conn.WriteJSON(live.Message{Op: live.OpSet, Key: "title", Value: "world"}))
	require.NoError(t, conn.ReadJSON(&rep))
	assert.Empty(t, rep.Error)
	assert.Equal(t, `<div id="app"><h1>world</h1><input id="box"></div>`, rep.HTML)
	assert.NotEqual(t, initial, rep.Fingerprint)

	require.NoError(t, conn.WriteJSON(live.Message{Op: live.OpInput, Selector: "#box", Value: "typed"}))
	require.NoError(t, conn.ReadJSON(&rep))
	assert.Empty(t, rep.Error)
	assert.Contains(t, rep.HTML, "<h1>typed</h1>")

	require.NoError(t, conn.WriteJSON(live.Message{Op: live.OpSet, Key: "missing", Value: 1}))
	require.NoError(t, conn.ReadJSON(&rep))
	assert.Contains(t, rep.Error, "unknown field")

	require.NoError(t, conn.WriteJSON(live.Message{Op: "delete"}))
	require.NoError(t, conn.ReadJSON(&rep))
	assert.Contains(t, rep.Error, "unknown op")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var rep live.Reply
	require.NoError(t, conn.ReadJSON(&rep))
	require.NoError(t, conn.WriteJSON(live.Message{Op: live.OpSet, Key: "title", Value: "x"}))
	require.NoError(t, conn.ReadJSON(&rep))

	_, body := get(t, srv.URL+"/metrics")
	assert.Contains(t, body, `signalbind_field_writes_total{field="title"} 1`)
	assert.Contains(t, body, `signalbind_watcher_updates_total{field="title"} 1`)
}

func TestInputWithoutValue(t *testing.T) {
	srv := newServer(t)
	conn := dial(t, srv)

	rep := send(t, conn, `{"op":"input","selector":"#box"}`)
	assert.Empty(t, rep.Error)
	assert.Equal(t, `<div id="app"><h1></h1><input id="box"></div>`, rep.HTML)
}

func TestNumericSetKeepsFieldType(t *testing.T) {
	srv, m, v := newServerWith(t,
		`<div id="app"><b>{{ n }}</b><i>{{ ratio }}</i></div>`,
		map[string]any{"n": 1, "ratio": 0.5},
	)
	conn := dial(t, srv)

	rep := send(t, conn, `{"op":"set","key":"n","value":1}`)
	assert.Empty(t, rep.Error)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Writes.WithLabelValues("n")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedWrites.WithLabelValues("n")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Updates.WithLabelValues("n")))

	rep = send(t, conn, `{"op":"set","key":"n","value":2}`)
	assert.Empty(t, rep.Error)
	assert.Contains(t, rep.HTML, "<b>2</b>")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Updates.WithLabelValues("n")))

	rep = send(t, conn, `{"op":"set","key":"ratio","value":0.5}`)
	assert.Empty(t, rep.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedWrites.WithLabelValues("ratio")))

	rep = send(t, conn, `{"op":"set","key":"n","value":1.5}`)
	assert.NotEmpty(t, rep.Error)
	assert.Contains(t, rep.HTML, "<b>2</b>")

	n, _ := v.Get("n")
	assert.Equal(t, 2, n)
	ratio, _ := v.Get("ratio")
	assert.Equal(t, 0.5, ratio)
}
