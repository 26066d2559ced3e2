package server

import (
	"context"
	"net/http"

	"invest-client/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// reply is a message for one client only.
type reply struct {
	client  *Client
	message *models.MStreamMessage
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub owns the client set until ctx is done.
func (s *APIServer) runHub(ctx context.Context) {
	defer close(s.hubDone)

	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))

		case client := <-s.unregister:
			s.drop(client)

		case r := <-s.replies:
			if _, ok := s.clients[r.client]; ok {
				select {
				case r.client.send <- r.message:
				default:
				}
			}

		case event := <-s.broadcast:
			message := &models.MStreamMessage{Type: "UPDATE", Event: &event}
			for client := range s.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.Logger.Warning("websocket client too slow, disconnecting")
					s.drop(client)
				}
			}

		case <-ctx.Done():
			for client := range s.clients {
				s.drop(client)
			}
			return
		}
	}
}

func (s *APIServer) drop(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.connections.Store(int64(len(s.clients)))
	}
}

// -----------------------------------------------------------------------------
// Event Sink Implementation
// -----------------------------------------------------------------------------

// Broadcast queues event for the websocket clients. It never blocks; when the
// queue is full the event is dropped.
func (s *APIServer) Broadcast(event models.MMarketDataEvent) {
	select {
	case s.broadcast <- event:
	default:
		s.dropped.Add(1)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.hubDone:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command and answers with the cached
// state of the requested instruments.
func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}
	client.subscribe(cmd)

	uids := cmd.Instruments
	if len(uids) == 0 {
		uids = s.Caches.Candles.Buckets()
	}
	response := &models.MStreamMessage{Type: "INITIAL", Snapshots: make(map[string]models.MInstrumentSnapshot)}
	for _, uid := range uids {
		if snap, ok := s.snapshot(uid); ok {
			response.Snapshots[uid] = snap
		}
	}

	select {
	case s.replies <- reply{client: client, message: response}:
	case <-s.hubDone:
	}
}
