package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/rag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WSServer exposes the query pipeline over a WebSocket. Each connection
// owns an independent conversation history; messages on a connection
// are handled sequentially, so there is one in-flight query per
// conversation and the history is never shared.
type WSServer struct {
	engine *rag.Engine
}

func NewWSServer(engine *rag.Engine) *WSServer {
	return &WSServer{engine: engine}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var history []models.ChatTurn

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}
		if msg.Type != "query" || msg.Content == "" {
			continue
		}

		answer, err := s.engine.Ask(r.Context(), msg.Content, history)
		if err != nil {
			s.send(conn, Message{Type: "error", Content: err.Error()})
			continue
		}

		history = append(history,
			models.ChatTurn{Role: models.RoleHuman, Content: msg.Content},
			models.ChatTurn{Role: models.RoleAssistant, Content: answer},
		)

		s.send(conn, Message{Type: "answer", Content: answer})
	}
}

func (s *WSServer) send(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error writing message: %v", err)
	}
}

// ListenAndServe blocks serving the /ws endpoint on the given address.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
