// Package session holds the WebSocket sessions of connected game clients and debug viewers.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Packet is the unified WS message envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewPacket marshals payload into a packet of type typ.
func NewPacket(typ string, payload interface{}) (*Packet, error) {
	if payload == nil {
		return &Packet{Type: typ}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Packet{Type: typ, Payload: raw}, nil
}

// ClientSession is one connected client. A game client drives a room; an
// observer only receives its pushes.
type ClientSession struct {
	ClientID string
	Room     string
	Role     string
	Conn     *websocket.Conn

	SendChan chan []byte
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	closeOnce sync.Once
	logger    *zap.Logger
}

// NewClientSession creates a session and starts its write goroutine.
func NewClientSession(clientID, room, role string, conn *websocket.Conn, logger *zap.Logger) *ClientSession {
	s := &ClientSession{
		ClientID: clientID,
		Room:     room,
		Role:     role,
		Conn:     conn,
		SendChan: make(chan []byte, sendChanBuf),
		Done:     make(chan struct{}),
		logger:   logger,
	}
	go s.writePump()
	return s
}

// ID implements world.Client.
func (s *ClientSession) ID() string { return s.ClientID }

// writePump drains SendChan into the connection and pings it periodically.
func (s *ClientSession) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data, ok := <-s.SendChan:
			if !ok {
				return
			}
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.String("client_id", s.ClientID),
					zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.Done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and sends it non-blocking. Drops if channel full or closed.
func (s *ClientSession) Send(pkt *Packet) {
	if s.IsClosed() {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	s.SendRaw(data)
}

// SendRaw sends raw bytes non-blocking. Drops if channel full or closed.
func (s *ClientSession) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
	default:
		if !s.IsClosed() {
			s.logger.Warn("send channel full, dropping packet",
				zap.String("client_id", s.ClientID))
		}
	}
}

// SendError pushes an error packet for a request of type reqType.
func (s *ClientSession) SendError(reqType, msg string) {
	pkt, _ := NewPacket("error", map[string]string{"request": reqType, "error": msg})
	s.Send(pkt)
}

// Close signals the writePump to shut down.
func (s *ClientSession) Close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// IsClosed returns true if the session has been closed.
func (s *ClientSession) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// SendHeartbeatPong sends a pong packet in response to a client ping.
func (s *ClientSession) SendHeartbeatPong(clientTS int64) {
	pkt, _ := NewPacket("pong", map[string]int64{
		"client_ts": clientTS,
		"server_ts": time.Now().UnixMilli(),
	})
	s.Send(pkt)
}

// SetReadDeadline resets the WebSocket read deadline to 60 s from now.
func (s *ClientSession) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}
