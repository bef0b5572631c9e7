// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/latticectl/core/pkg/logger"
	"github.com/latticectl/core/pkg/runtime"
)

// Hub fans a single kind's Watcher output out to any number of HTTP
// watch subscribers: the boundary's `GET .../watch` route is one
// consumer of many over the same underlying change feed, so the
// runtime only ever opens one subscription per kind regardless of how
// many clients are streaming it.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[chan runtime.Event[T]]struct{}
}

// NewHub starts relaying source to every current and future
// subscriber, until source closes (the watcher's context is
// cancelled).
func NewHub[T any](source <-chan runtime.Event[T]) *Hub[T] {
	h := &Hub[T]{subs: make(map[chan runtime.Event[T]]struct{})}
	go h.relay(source)
	return h
}

func (h *Hub[T]) relay(source <-chan runtime.Event[T]) {
	for ev := range source {
		h.mu.Lock()
		for sub := range h.subs {
			select {
			case sub <- ev:
			default:
				logger.Warnw("watch subscriber too slow, dropping event")
			}
		}
		h.mu.Unlock()
	}
	h.mu.Lock()
	for sub := range h.subs {
		close(sub)
	}
	h.subs = nil
	h.mu.Unlock()
}

// Subscribe registers a new subscriber channel; call the returned
// cancel func when the caller is done (e.g. the HTTP client
// disconnected) to stop receiving and release the channel.
func (h *Hub[T]) Subscribe() (<-chan runtime.Event[T], func()) {
	ch := make(chan runtime.Event[T], 8)
	h.mu.Lock()
	if h.subs != nil {
		h.subs[ch] = struct{}{}
	}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if h.subs != nil {
			delete(h.subs, ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// watchEvent is the SSE `event: change` payload: a change-feed shape
// normalised for callers, independent of the substrate's native
// line-delimited JSON.
type watchEvent[T any] struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	Doc     T      `json:"doc,omitempty"`
}

// WatchHandler streams hub's events to the client as server-sent
// events until the client disconnects or hub closes.
func WatchHandler[T any](hub *Hub[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub, cancel := hub.Subscribe()
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				payload, err := json.Marshal(watchEvent[T]{Name: ev.Name, Deleted: ev.Deleted, Doc: ev.Doc})
				if err != nil {
					logger.Errorw("encoding watch event", "error", err)
					continue
				}
				if _, err := w.Write([]byte("event: change\ndata: ")); err != nil {
					return
				}
				if _, err := w.Write(payload); err != nil {
					return
				}
				if _, err := w.Write([]byte("\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
