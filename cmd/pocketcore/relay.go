package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// spectatorRelay broadcasts finished frames to any number of read-only
// websocket viewers, the way the teacher's pkg/display/web hub fans frames
// out to connected browser clients. Unlike the teacher's hub this relay is
// one-directional: spectators receive frames but cannot feed input back.
type spectatorRelay struct {
	mu      sync.Mutex
	clients map[*spectatorClient]bool

	register   chan *spectatorClient
	unregister chan *spectatorClient
	broadcast  chan []byte
}

type spectatorClient struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newSpectatorRelay() *spectatorRelay {
	return &spectatorRelay{
		clients:    make(map[*spectatorClient]bool),
		register:   make(chan *spectatorClient),
		unregister: make(chan *spectatorClient),
		broadcast:  make(chan []byte, 4),
	}
}

// run services registration and broadcast on a single goroutine, mirroring
// the hub's select loop so client map access never needs a lock.
func (r *spectatorRelay) run() {
	for {
		select {
		case c := <-r.register:
			r.clients[c] = true
		case c := <-r.unregister:
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
			}
		case frame := <-r.broadcast:
			for c := range r.clients {
				select {
				case c.send <- frame:
				default:
					// slow client: disconnect it rather than block the emulator.
					delete(r.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// publishFrame is called once per emulated video frame by the host loop.
func (r *spectatorRelay) publishFrame(frame []byte) {
	select {
	case r.broadcast <- frame:
	default:
		// a broadcast is already pending; drop this one rather than pile up.
	}
}

func (r *spectatorRelay) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	c := &spectatorClient{conn: conn, send: make(chan []byte, 2)}
	r.register <- c

	go c.writePump(r)
}

func (c *spectatorClient) writePump(r *spectatorRelay) {
	defer func() {
		r.unregister <- c
		c.conn.Close()
	}()

	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func serveSpectatorRelay(addr string) *spectatorRelay {
	relay := newSpectatorRelay()
	go relay.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/", relay.handleWebsocket)
	go http.ListenAndServe(addr, mux)

	return relay
}
