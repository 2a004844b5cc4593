// Package liveview serves a single status page and websocket feed of per-frame
// simulation statistics, for watching a run live instead of only inspecting its
// persisted output afterward. It sits entirely outside the synchronous round engine:
// network.Network and telemetry.Run know nothing about it, and it never participates
// in slot-by-slot draw order.
//
// Grounded on niceyeti-tabular/tabular/server/server.go's websocket publish loop
// (ping/pong liveness, write-deadline discipline, drop-on-backpressure publication),
// adapted from single-page grid-cell updates to per-frame Frame pushes.
// gorilla/mux replaces the teacher's bare http.HandleFunc routing — a real router was
// a dead dependency in the teacher's go.mod, revived here for an actual multi-route
// server (index, websocket, health).
package liveview

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = 10 * time.Second
	pubResolution    = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{}

// Frame is one pushed status update: a snapshot of the network's running state,
// intentionally decoupled from telemetry.Stats' block-reduced shape so the feed can
// push every frame as it completes rather than waiting for a statistical block.
type Frame struct {
	Index             int       `json:"index"`
	Collisions        float64   `json:"collisions"`
	TDMAUtilization   float64   `json:"tdma_utilization"`
	PlayerUtilization []float64 `json:"player_utilization"`
	PlayerLabels      []string  `json:"player_labels"`
	Active            []bool    `json:"active"`
}

// Server serves an index page and a websocket feed of Frames. The number of
// connected clients is not limited; every client reads from the same updates
// channel, so each Frame is delivered to only one of them.
type Server struct {
	addr    string
	updates <-chan Frame
	last    Frame
}

// NewServer returns a Server that will push frames arriving on updates.
func NewServer(addr string, updates <-chan Frame) *Server {
	return &Server{addr: addr, updates: updates}
}

// Serve runs the HTTP server until ctx is canceled, returning its shutdown error (if
// any). An errgroup coordinates the listener goroutine with ctx cancellation so Serve
// blocks until the server has actually stopped, rather than racing the caller.
func (s *Server) Serve(ctx context.Context) error {
	router := mux.NewRouter()
	router.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)

	httpServer := &http.Server{Addr: s.addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("liveview: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		log.Println("liveview: upgrade:", err)
		return
	}
	defer closeWebsocket(ws)
	s.publishFrames(r.Context(), ws)
}

func (s *Server) publishFrames(ctx context.Context, ws *websocket.Conn) {
	last := time.Now()
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()
	pinger := channerics.NewTicker(pubCtx.Done(), pingPeriod)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(appData string) error {
		pong <- struct{}{}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancelPub()
					if isClosure(err) {
						return
					}
					log.Println("liveview: read pump:", err)
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingPeriod*2 {
				log.Println("liveview: client unresponsive, closing")
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					log.Printf("liveview: ping failed: %v", err)
				}
				return
			}
		case <-pong:
			lastPong = time.Now()
		case frame, ok := <-s.updates:
			if !ok {
				return
			}
			if time.Since(last) < pubResolution {
				continue
			}
			last = time.Now()
			s.last = frame
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("liveview: failed to set deadline: %v", err)
				return
			}
			if err := ws.WriteJSON(frame); err != nil {
				if isError(err) {
					log.Printf("liveview: publish failed: %v", err)
				}
				return
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>slotmac liveview</title></head>
<body>
<h1>slotmac</h1>
<pre id="status">connecting...</pre>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  document.getElementById("status").textContent = JSON.stringify(JSON.parse(ev.data), null, 2);
};
</script>
</body>
</html>
`
