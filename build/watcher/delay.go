package watcher

import "time"

// A delay is a timeout that can be retriggered. Triggering it again while it
// is pending pushes the deadline back instead of starting a second timer.
type delay struct {
	timer    *time.Timer
	channel  <-chan time.Time
	deadline time.Time
}

// trigger arranges for the channel to fire once dt has passed.
func (d *delay) trigger(dt time.Duration) {
	if d.channel != nil {
		d.deadline = time.Now().Add(dt)
		return
	}
	if d.timer == nil {
		d.timer = time.NewTimer(dt)
	} else {
		d.timer.Reset(dt)
	}
	d.channel = d.timer.C
	d.deadline = time.Time{}
}

// remainingTime returns how long is left before the latest deadline. Call it
// after the channel fires, and trigger again if it is positive.
func (d *delay) remainingTime() time.Duration {
	if d.deadline.IsZero() {
		return 0
	}
	return time.Until(d.deadline)
}
