// Package watcher reconverts a score whenever it changes on disk.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type bstate uint32

const (
	bstateNone bstate = iota
	bstateBuilding
	bstateCanceled
)

const rebuildDelay = 100 * time.Millisecond

// A ConvertFunc converts the file at the given path.
type ConvertFunc func(ctx context.Context, path string) (string, error)

// A State is the result of one conversion.
type State struct {
	Path   string
	Time   time.Time
	Err    error
	Output string
}

type watcher struct {
	path      string
	convert   ConvertFunc
	output    chan<- *State
	watcher   *fsnotify.Watcher
	delay     delay
	bstate    bstate
	wantbuild bool

	cancelfunc    context.CancelFunc
	convertOutput chan *State
}

// Watch converts the file at the given path, and converts it again each time
// it is written. Results are sent on the returned channel, which is closed
// once the context is done. A result is only sent if the file did not change
// again while it was being converted.
//
// The containing directory is watched rather than the file, so editors which
// save by replacing the file are handled.
func Watch(ctx context.Context, path string, convert ConvertFunc) (<-chan *State, error) {
	path = filepath.Clean(path)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	ch := make(chan *State, 1)
	w := watcher{
		path:          path,
		convert:       convert,
		output:        ch,
		watcher:       fw,
		convertOutput: make(chan *State, 1),
	}
	go w.watch(ctx)
	return ch, nil
}

func (w *watcher) watch(ctx context.Context) {
	defer close(w.output)
	defer w.watcher.Close()
	if err := w.watchFunc(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Errorln("Watch:", err)
		w.send(ctx, &State{Path: w.path, Time: time.Now(), Err: err})
	}
}

func (w *watcher) send(ctx context.Context, s *State) {
	select {
	case w.output <- s:
	case <-ctx.Done():
	}
}

func (w *watcher) watchFunc(ctx context.Context) error {
	w.triggerBuild()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logrus.Debugln("Changed:", ev.Name)
				w.cancelBuild()
				w.triggerBuild()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher channel closed")
			}
			return err
		case <-w.delay.channel:
			w.delay.channel = nil
			if w.wantbuild && w.bstate == bstateNone {
				if rem := w.delay.remainingTime(); rem > 0 {
					w.delay.trigger(rem)
				} else {
					w.startBuild(ctx)
				}
			}
		case r := <-w.convertOutput:
			if w.bstate == bstateBuilding {
				w.send(ctx, r)
			}
			w.bstate = bstateNone
			if w.wantbuild && w.delay.channel == nil {
				w.startBuild(ctx)
			}
		case <-ctx.Done():
			w.cancelBuild()
			return ctx.Err()
		}
	}
}

func (w *watcher) cancelBuild() {
	switch w.bstate {
	case bstateNone, bstateCanceled:
	case bstateBuilding:
		w.cancelfunc()
		w.cancelfunc = nil
		w.bstate = bstateCanceled
	default:
		panic("unknown state")
	}
	w.wantbuild = false
}

func (w *watcher) triggerBuild() {
	w.delay.trigger(rebuildDelay)
	w.wantbuild = true
}

func (w *watcher) startBuild(ctx context.Context) {
	if w.bstate != bstateNone {
		panic("invalid state")
	}
	ctx, cancel := context.WithCancel(ctx)
	go w.build(ctx)
	w.cancelfunc = cancel
	w.bstate = bstateBuilding
	w.wantbuild = false
}

func (w *watcher) build(ctx context.Context) {
	s := State{Path: w.path}
	s.Output, s.Err = w.convert(ctx, w.path)
	s.Time = time.Now()
	w.convertOutput <- &s
}
