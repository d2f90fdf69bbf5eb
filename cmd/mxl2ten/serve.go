package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"moria.us/tenuto/build/watcher"
)

const (
	htmlType = "text/html; charset=UTF-8"
	textType = "text/plain; charset=UTF-8"
	jsonType = "application/json"
)

type contextKey struct{}

func (contextKey) String() string {
	return "mxl2ten context key"
}

type handler struct {
	input   string
	results results
}

func getHandler(ctx context.Context) *handler {
	val := ctx.Value(contextKey{})
	if val == nil {
		panic("missing context key")
	}
	v, ok := val.(*handler)
	if !ok {
		panic("context key has wrong value")
	}
	return v
}

func logResponse(r *http.Request, status int, msg string) {
	if status >= 400 {
		if msg == "" {
			msg = http.StatusText(status)
		}
		logrus.Errorln(status, r.URL, msg)
	} else if msg == "" {
		logrus.Infoln(status, r.URL)
	} else {
		logrus.Infoln(status, r.URL, msg)
	}
}

func serveData(w http.ResponseWriter, r *http.Request, status int, ctype string, data []byte) {
	logResponse(r, status, "")
	hdr := w.Header()
	hdr.Set("Content-Type", ctype)
	hdr.Set("Content-Length", strconv.Itoa(len(data)))
	hdr.Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(data)
}

func serveStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	logResponse(r, status, msg)
	body := fmt.Sprintf("%d %s\n%s\n", status, http.StatusText(status), msg)
	hdr := w.Header()
	hdr.Set("Content-Type", textType)
	hdr.Set("Content-Length", strconv.Itoa(len(body)))
	hdr.Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body>
<p id="state">{{.State}}</p>
<pre id="score">{{.Text}}</pre>
<script>
(function() {
  var state = document.getElementById("state");
  var score = document.getElementById("score");
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/socket");
  ws.onmessage = function(e) {
    var m = JSON.parse(e.data);
    state.textContent = m.state + (m.error ? ": " + m.error : "");
    if (m.state === "ok") {
      fetch("/score.ten").then(function(r) { return r.text(); }).then(function(t) { score.textContent = t; });
    }
  };
  ws.onclose = function() { state.textContent = "disconnected"; };
})();
</script>
</body>
</html>
`))

func serveIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := getHandler(ctx)
	s, err := h.results.get(ctx)
	if err != nil {
		// ctx canceled.
		return
	}
	type idata struct {
		Title string
		State string
		Text  string
	}
	d := idata{Title: h.input}
	m := newStatusMessage(s)
	d.State = m.State
	if s.Err != nil {
		d.State += ": " + m.Error
	} else {
		d.Text = s.Output
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, &d); err != nil {
		serveStatus(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	serveData(w, r, http.StatusOK, htmlType, buf.Bytes())
}

func serveScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := getHandler(ctx)
	s, err := h.results.get(ctx)
	if err != nil {
		return
	}
	if s.Err != nil {
		serveStatus(w, r, http.StatusInternalServerError, "Could not convert: "+s.Err.Error())
		return
	}
	serveData(w, r, http.StatusOK, textType, []byte(s.Output))
}

// A statusMessage is sent to clients to describe the latest conversion.
type statusMessage struct {
	State string    `json:"state"`
	Error string    `json:"error,omitempty"`
	Path  string    `json:"path,omitempty"`
	Time  time.Time `json:"time"`
}

func newStatusMessage(s *watcher.State) *statusMessage {
	if s == nil {
		return &statusMessage{State: "converting"}
	}
	m := statusMessage{Path: s.Path, Time: s.Time}
	if s.Err != nil {
		m.State = "fail"
		m.Error = s.Err.Error()
	} else {
		m.State = "ok"
	}
	return &m
}

func serveStatusJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := getHandler(ctx)
	h.results.lock.RLock()
	s := h.results.latest
	h.results.lock.RUnlock()
	data, err := json.Marshal(newStatusMessage(s))
	if err != nil {
		serveStatus(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	serveData(w, r, http.StatusOK, jsonType, data)
}

func serveNotFound(w http.ResponseWriter, r *http.Request) {
	serveStatus(w, r, http.StatusNotFound, fmt.Sprintf("Page not found: %q", r.URL))
}

func newMux() *chi.Mux {
	mx := chi.NewMux()
	mx.Get("/", serveIndex)
	mx.Get("/score.ten", serveScore)
	mx.Get("/status", serveStatusJSON)
	mx.Get("/socket", serveSocket)
	mx.NotFound(serveNotFound)
	return mx
}

func newServeCmd(f *flags) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve <input>",
		Short: "Serve a live preview of a score's conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			h := &handler{input: args[0]}
			ch, err := watcher.Watch(ctx, args[0], converter(c))
			if err != nil {
				return err
			}
			go h.results.watch(ch)
			return serve(ctx, h, host, port)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&host, "host", "localhost", "host to serve from, or * to bind to all local addresses")
	fl.IntVar(&port, "port", 9013, "port to serve from")
	return cmd
}

func serve(ctx context.Context, h *handler, host string, port int) error {
	var addrs []net.IPAddr
	if host == "*" {
		addrs = []net.IPAddr{{IP: net.IPv6zero}}
		host = "localhost"
	} else {
		var err error
		addrs, err = net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return fmt.Errorf("could not look up host: %v", err)
		}
		if host == "" {
			host = "localhost"
		}
	}
	hctx := context.WithValue(ctx, contextKey{}, h)
	s := http.Server{
		Handler:     newMux(),
		BaseContext: func(_ net.Listener) context.Context { return hctx },
	}
	errs := make(chan error, len(addrs))
	var root *url.URL
	for _, addr := range addrs {
		ta := net.TCPAddr{
			IP:   addr.IP,
			Zone: addr.Zone,
			Port: port,
		}
		l, err := net.ListenTCP("tcp", &ta)
		if err != nil {
			s.Close()
			return err
		}
		if root == nil {
			root = &url.URL{
				Scheme: "http",
				Host:   net.JoinHostPort(host, strconv.Itoa(port)),
				Path:   "/",
			}
			logrus.Infoln("Serving on:", root)
		}
		go func(l *net.TCPListener) {
			errs <- s.Serve(l)
		}(l)
	}
	if root == nil {
		return errors.New("no address to serve on")
	}
	select {
	case err := <-errs:
		s.Close()
		return err
	case <-ctx.Done():
		s.Close()
		return nil
	}
}
