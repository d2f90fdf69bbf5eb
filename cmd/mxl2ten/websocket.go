package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"moria.us/tenuto/build/watcher"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{}

type wshandler struct {
	handler *handler
	conn    *websocket.Conn
}

// serveSocket pushes a status message to the client after every conversion.
func serveSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := getHandler(ctx)
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorln("Upgrade:", err)
		return
	}
	logResponse(r, http.StatusSwitchingProtocols, "")
	wh := wshandler{
		handler: h,
		conn:    c,
	}
	endch := make(chan struct{})
	go wh.read(endch)
	go wh.write(endch)
}

func (h *wshandler) read(endch chan struct{}) {
	defer close(endch)
	for {
		mt, _, err := h.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.Errorln("Websocket read:", err)
			}
			break
		}
		logrus.Debugln("Websocket message:", mt)
	}
}

func (h *wshandler) write(endch chan struct{}) {
	defer h.conn.Close()
	ch := make(chan *watcher.State, 10)
	s := h.handler.results.addListener(ch)
	defer h.handler.results.removeListener(ch)
	if err := h.send(s); err != nil {
		logrus.Errorln("Websocket send:", err)
		return
	}
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return
			}
			if err := h.send(s); err != nil {
				logrus.Errorln("Websocket send:", err)
				return
			}
		case <-t.C:
			h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.Errorln("Websocket ping:", err)
				return
			}
		case <-endch:
			return
		}
	}
}

func (h *wshandler) send(s *watcher.State) error {
	md, err := json.Marshal(newStatusMessage(s))
	if err != nil {
		return err
	}
	h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return h.conn.WriteMessage(websocket.TextMessage, md)
}
