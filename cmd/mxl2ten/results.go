package main

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"moria.us/tenuto/build/watcher"
)

// results holds the latest conversion and notifies listeners when it
// changes. Listeners which fall behind are dropped and their channel closed.
type results struct {
	lock      sync.RWMutex
	latest    *watcher.State
	listeners []chan<- *watcher.State
}

func (r *results) watch(ch <-chan *watcher.State) {
	for s := range ch {
		if s.Err != nil {
			logrus.Errorln("Convert:", s.Err)
		} else {
			logrus.Infoln("Converted", s.Path)
		}
		r.set(s)
	}
}

func (r *results) set(s *watcher.State) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.latest = s
	ls := r.listeners
	var pos int
	for _, l := range ls {
		select {
		case l <- s:
			ls[pos] = l
			pos++
		default:
			close(l)
		}
	}
	r.listeners = ls[:pos]
	for ; pos < len(ls); pos++ {
		ls[pos] = nil
	}
}

// addListener registers a channel for new results and returns the current
// result, which may be nil.
func (r *results) addListener(ch chan<- *watcher.State) *watcher.State {
	if ch == nil {
		panic("nil channel")
	}
	r.lock.Lock()
	s := r.latest
	r.listeners = append(r.listeners, ch)
	r.lock.Unlock()
	return s
}

func (r *results) removeListener(ch chan<- *watcher.State) {
	r.lock.Lock()
	for i, l := range r.listeners {
		if l == ch {
			r.listeners[i] = r.listeners[len(r.listeners)-1]
			r.listeners[len(r.listeners)-1] = nil
			r.listeners = r.listeners[:len(r.listeners)-1]
			close(ch)
			break
		}
	}
	r.lock.Unlock()
}

// get returns the latest result, waiting for the first one if necessary.
func (r *results) get(ctx context.Context) (*watcher.State, error) {
	r.lock.RLock()
	s := r.latest
	r.lock.RUnlock()
	if s != nil {
		return s, nil
	}
	ch := make(chan *watcher.State, 1)
	if s = r.addListener(ch); s != nil {
		r.removeListener(ch)
		return s, nil
	}
	defer r.removeListener(ch)
	select {
	case s, ok := <-ch:
		if !ok {
			return nil, context.Canceled
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
