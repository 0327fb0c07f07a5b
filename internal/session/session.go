// Package session implements the per-connection orchestrator: the
// accept-and-serve loop that subscribes a peer to the broadcast bus,
// sends its initial snapshot, and runs the command pipeline (decode,
// apply, flush, pack, publish) for every inbound frame.
package session

import (
	"log"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/darxtarr/txxt/internal/auth"
	"github.com/darxtarr/txxt/internal/broadcast"
	"github.com/darxtarr/txxt/internal/httpmw"
	"github.com/darxtarr/txxt/internal/store"
	"github.com/darxtarr/txxt/internal/wire"
	"github.com/darxtarr/txxt/internal/world"
)

// OnFatal is called when a save-file flush fails mid-pipeline. The
// in-memory World has already advanced past what is on disk at that
// point, so continuing would silently diverge memory from disk; the
// default terminates the process. Tests substitute a non-exiting stub.
var OnFatal = func(err error) {
	log.Fatalf("session: fatal: save file flush failed, memory and disk have diverged: %v", err)
}

// Authenticator resolves a bearer token to an actor id. Satisfied by
// *auth.Service; kept as an interface here so session does not need to
// import auth's session-table internals.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, bool)
}

// Handler serves the /api/game upgrade endpoint: one goroutine pair
// per accepted connection, for as long as the connection lives.
type Handler struct {
	World  *world.World
	Save   *store.SaveFile
	Bus    *broadcast.Bus
	Auth   Authenticator
	Logger *log.Logger
}

func (h *Handler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// ServeHTTP resolves the actor, hijacks the connection, and hands it
// to serve. Token resolution happens before the hijack: an
// unauthenticated request never leaves HTTP semantics, so it can
// still receive a clean 401.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Auth.Authenticate(auth.BearerToken(r))
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "connection does not support hijacking", http.StatusInternalServerError)
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		http.Error(w, "hijack failed", http.StatusInternalServerError)
		return
	}

	requestID := httpmw.RequestIDFromContext(r.Context())
	go h.serve(conn, actor, requestID)
}

// serve runs for the lifetime of one connection: subscribe, snapshot,
// then the duplex forward/apply loop. Always closes conn on return.
func (h *Handler) serve(conn net.Conn, actor uuid.UUID, requestID string) {
	defer conn.Close()

	sub := h.Bus.Subscribe()
	defer sub.Unsubscribe()

	h.World.RLock()
	snapshot := wire.PackSnapshot(h.World.Tasks(), h.World.Services(), h.World.Revision())
	h.World.RUnlock()

	if err := writeFrame(conn, snapshot); err != nil {
		h.logger().Printf(`{"level":"warn","msg":"session_snapshot_send_failed","request_id":%q,"error":%q}`, requestID, err.Error())
		return
	}

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan []byte)
	readErrs := make(chan error, 1)
	go readInboundLoop(conn, inbound, readErrs, done)

	for {
		select {
		case frame, ok := <-sub.Frames:
			if !ok {
				// Lagging subscriber dropped by the bus; the client is
				// desynchronized and must reconnect to resynchronize.
				return
			}
			if err := writeFrame(conn, frame); err != nil {
				return
			}

		case frame, ok := <-inbound:
			if !ok {
				if err := <-readErrs; err != nil {
					h.logger().Printf(`{"level":"info","msg":"session_read_failed","request_id":%q,"error":%q}`, requestID, err.Error())
				}
				return
			}
			h.handleCommand(frame, actor, requestID)
		}
	}
}

// readInboundLoop reads length-prefixed frames off conn and forwards
// them to inbound until a read fails (closing inbound and reporting the
// error on readErrs) or done is closed. Closing done is the only way to
// stop this loop once it holds a frame it is trying to deliver: inbound
// is unbuffered, so without the done case the send blocks forever if
// serve's select loop has already returned via the sub.Frames branch
// and nobody is left to receive.
func readInboundLoop(conn net.Conn, inbound chan<- []byte, readErrs chan<- error, done <-chan struct{}) {
	for {
		frame, err := readFrame(conn)
		if err != nil {
			readErrs <- err
			close(inbound)
			return
		}
		select {
		case inbound <- frame:
		case <-done:
			return
		}
	}
}

// handleCommand runs one full mutation-pipeline pass: decode, acquire
// write access, validate+apply, flush, release, pack, publish. All
// synchronous, matching SPEC_FULL.md SS5's write discipline.
func (h *Handler) handleCommand(frame []byte, actor uuid.UUID, requestID string) {
	cmd, err := wire.UnpackCommand(frame)
	if err != nil {
		h.logger().Printf(`{"level":"warn","msg":"session_bad_command","request_id":%q,"error":%q}`, requestID, err.Error())
		return
	}

	h.World.Lock()
	ev, err := h.World.Apply(cmd, actor)
	if err != nil {
		h.World.Unlock()
		h.logger().Printf(`{"level":"info","msg":"session_command_rejected","request_id":%q,"error":%q}`, requestID, err.Error())
		return
	}
	if flushErr := h.Save.Flush(h.World, ev); flushErr != nil {
		h.World.Unlock()
		OnFatal(flushErr)
		return
	}
	h.World.Unlock()

	h.Bus.Publish(wire.PackEvent(ev))
}
