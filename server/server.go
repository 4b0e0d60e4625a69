// Package server exposes the normalisation pipeline over a websocket.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/xhad/intentprep/pkg/processor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the envelope for both directions. Requests carry Content;
// replies carry Data.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	Threads int
}

type WSServer struct {
	config    Config
	processor *processor.Processor
}

func NewWSServer(config Config) *WSServer {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		Threads: config.Threads,
	})

	return &WSServer{
		config:    config,
		processor: &p,
	}
}

// Handler routes /ws to the websocket endpoint and /health to a liveness check.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *WSServer) ListenAndServe(addr string) error {
	log.Printf("Starting WebSocket server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendMessage(conn, Message{Type: "error", Content: fmt.Sprintf("invalid message: %v", err)})
			continue
		}

		// Replies go out in request order; a connection allows one writer.
		s.sendMessage(conn, s.handleMessage(msg))
	}
}

func (s *WSServer) handleMessage(msg Message) Message {
	switch msg.Type {
	case "document":
		contexts, err := s.contexts(msg.Content)
		if err != nil {
			return Message{Type: "error", Content: err.Error()}
		}
		return Message{Type: "contexts", Data: contexts}

	case "clean":
		cleaned, record, err := s.processor.Clean(msg.Content)
		if err != nil {
			return Message{Type: "error", Content: err.Error()}
		}
		counts := make(map[string]int, len(record))
		for name, metric := range record {
			counts[name] = metric.Count
		}
		return Message{Type: "cleaned", Content: cleaned, Data: counts}

	default:
		return Message{Type: "error", Content: fmt.Sprintf("unknown message type: %q", msg.Type)}
	}
}

func (s *WSServer) contexts(document string) ([]string, error) {
	cleaned, _, err := s.processor.Clean(document)
	if err != nil {
		return nil, err
	}

	contexts := processor.SplitDocument(cleaned)
	if contexts == nil {
		contexts = []string{}
	}
	for i, c := range contexts {
		contexts[i] = processor.FinalClean(c)
	}
	return contexts, nil
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
