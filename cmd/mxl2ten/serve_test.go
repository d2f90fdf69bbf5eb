package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moria.us/tenuto/build/watcher"
)

func newTestServer(t *testing.T, h *handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(newMux())
	ctx := context.WithValue(context.Background(), contextKey{}, h)
	srv.Config.BaseContext = func(_ net.Listener) context.Context { return ctx }
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServeScore(t *testing.T) {
	h := &handler{input: "air.musicxml"}
	h.results.set(&watcher.State{Path: "air.musicxml", Time: time.Now(), Output: "tenuto {\n}"})
	srv := newTestServer(t, h)

	resp, body := get(t, srv.URL+"/score.ten")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, textType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "tenuto {\n}", body)

	resp, body = get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, htmlType, resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<title>air.musicxml</title>")
	assert.Contains(t, body, `<pre id="score">tenuto {`)

	resp, body = get(t, srv.URL+"/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var m statusMessage
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "ok", m.State)
	assert.Equal(t, "air.musicxml", m.Path)

	resp, _ = get(t, srv.URL+"/nothing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeFailure(t *testing.T) {
	h := &handler{input: "bad.xml"}
	h.results.set(&watcher.State{Path: "bad.xml", Err: errors.New("<pitch> is missing <step>")})
	srv := newTestServer(t, h)

	resp, body := get(t, srv.URL+"/score.ten")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Could not convert: <pitch> is missing <step>")

	_, body = get(t, srv.URL+"/")
	assert.Contains(t, body, "fail: &lt;pitch&gt; is missing &lt;step&gt;")

	_, body = get(t, srv.URL+"/status")
	var m statusMessage
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "fail", m.State)
	assert.Equal(t, "<pitch> is missing <step>", m.Error)
}

func TestServeStatusBeforeFirstResult(t *testing.T) {
	srv := newTestServer(t, &handler{})
	_, body := get(t, srv.URL+"/status")
	var m statusMessage
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "converting", m.State)
}

func TestServeSocket(t *testing.T) {
	h := &handler{}
	srv := newTestServer(t, h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() statusMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var m statusMessage
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}
	assert.Equal(t, "converting", read().State)

	h.results.set(&watcher.State{Path: "a.xml", Output: "tenuto {\n}"})
	assert.Equal(t, "ok", read().State)

	h.results.set(&watcher.State{Path: "a.xml", Err: errors.New("boom")})
	m := read()
	assert.Equal(t, "fail", m.State)
	assert.Equal(t, "boom", m.Error)
}

func TestResultsGetWaits(t *testing.T) {
	var r results
	done := make(chan *watcher.State)
	go func() {
		s, err := r.get(context.Background())
		assert.NoError(t, err)
		done <- s
	}()
	want := &watcher.State{Output: "x"}
	// Wait for the listener to be added before publishing.
	for {
		r.lock.RLock()
		n := len(r.listeners)
		r.lock.RUnlock()
		if n != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	r.set(want)
	select {
	case got := <-done:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("get did not return")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var empty results
	_, err := empty.get(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestResultsDropsSlowListener(t *testing.T) {
	var r results
	ch := make(chan *watcher.State, 1)
	r.addListener(ch)
	r.set(&watcher.State{Output: "1"})
	r.set(&watcher.State{Output: "2"})
	assert.Equal(t, "1", (<-ch).Output)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Empty(t, r.listeners)
}
