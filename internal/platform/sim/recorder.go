// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/leadcam/internal/platform"
)

var errRecorderInactive = errors.New("recorder is not recording")

// recorder emits synthetic chunks on a timeslice ticker. All handlers run on
// the recorder's own goroutine, never under its lock.
type recorder struct {
	p         *Platform
	stream    platform.Stream
	mime      string
	handlers  platform.RecorderHandlers
	timeslice time.Duration
	chunkSize int
	failAfter int

	mu    sync.Mutex
	state platform.RecorderState
	stop  chan struct{}
	done  chan struct{}
}

func (p *Platform) NewRecorder(s platform.Stream, mimeType string, h platform.RecorderHandlers) (platform.Recorder, error) {
	if s == nil {
		return nil, platform.NewMediaError(platform.NameNotSupported, "no stream")
	}
	if !p.IsTypeSupported(mimeType) {
		return nil, platform.NewMediaError(platform.NameNotSupported, "unsupported mime type "+mimeType)
	}
	r := &recorder{
		p:         p,
		stream:    s,
		mime:      mimeType,
		handlers:  h,
		timeslice: p.cfg.Timeslice,
		chunkSize: p.cfg.ChunkSize,
		failAfter: p.cfg.FailAfterChunks,
		state:     platform.RecorderInactive,
	}
	return r, nil
}

func (r *recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == platform.RecorderRecording || r.done != nil {
		return platform.NewMediaError("InvalidStateError", "recorder already started")
	}
	r.state = platform.RecorderRecording
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.p.trackRecorder(r)
	go r.run()
	return nil
}

func (r *recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != platform.RecorderRecording {
		return errRecorderInactive
	}
	r.state = platform.RecorderInactive
	close(r.stop)
	return nil
}

func (r *recorder) State() platform.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// wait blocks until the run loop has delivered OnStop.
func (r *recorder) wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *recorder) run() {
	defer close(r.done)
	defer r.p.untrackRecorder(r)

	ticker := time.NewTicker(r.timeslice)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ticker.C:
			select {
			case <-r.stop:
				r.finish(seq + 1)
				return
			default:
			}
			seq++
			r.emit(seq)
			if r.failAfter > 0 && seq == r.failAfter && r.handlers.OnError != nil {
				r.handlers.OnError(platform.NewMediaError(platform.NameNotReadable, "simulated encoder failure"))
			}
		case <-r.stop:
			r.finish(seq + 1)
			return
		}
	}
}

// finish delivers the final flush followed by OnStop.
func (r *recorder) finish(seq int) {
	r.emit(seq)
	if r.handlers.OnStop != nil {
		r.handlers.OnStop()
	}
}

func (r *recorder) emit(seq int) {
	if r.handlers.OnData == nil {
		return
	}
	chunk := make([]byte, r.chunkSize)
	for i := range chunk {
		chunk[i] = byte(seq)
	}
	r.handlers.OnData(chunk)
}
