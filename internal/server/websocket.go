package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"tilegame/internal/game"
	"tilegame/internal/game/rules"
	"tilegame/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	SessionID   string `json:"sessionId"`
}

type placementPayload struct {
	Letter string `json:"letter"`
	Blank  bool   `json:"blank"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type playPayload struct {
	Placements []placementPayload `json:"placements"`
}

type exchangePayload struct {
	Letters string `json:"letters"`
}

type errorPayload struct {
	Message string `json:"message"`
}

const sendBuffer = 64

// hub maps connected players to their outbound queues.
type hub struct {
	mu    sync.Mutex
	conns map[string]chan []byte
}

func newHub() *hub {
	return &hub{conns: make(map[string]chan []byte)}
}

// register claims playerID for a connection. A player may hold one
// connection at a time.
func (h *hub) register(playerID string, send chan []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[playerID]; ok {
		return false
	}
	h.conns[playerID] = send
	return true
}

func (h *hub) unregister(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.conns[playerID]; ok {
		delete(h.conns, playerID)
		close(send)
	}
}

// send queues msg for playerID, dropping it if the queue is full.
func (h *hub) send(playerID string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	send, ok := h.conns[playerID]
	if !ok {
		return
	}
	select {
	case send <- msg:
	default:
		log.Warn().Str("player", playerID).Msg("send queue full, dropping message")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	playerID, sess, send, ok := s.awaitJoin(ctx, conn)
	if !ok {
		return
	}

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	s.manager.MaybeStart(sess.ID)
	s.broadcastState(sess)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendTo(playerID, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(playerID, msg)
	}

	s.hub.unregister(playerID)
	log.Info().Str("player", playerID).Msg("player disconnected")
	if left, ok := s.manager.RemovePlayer(playerID); ok {
		s.broadcastState(left)
	}
}

// awaitJoin reads messages until the client joins a session. Anything else
// before a successful join is answered with an error. The player's hub slot
// is claimed before the manager sees the join, so a second connection for
// a connected player never touches their seat.
func (s *Server) awaitJoin(ctx context.Context, conn *websocket.Conn) (string, *session.Session, chan []byte, bool) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return "", nil, nil, false
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
			writeDirect(ctx, conn, "error", errorPayload{Message: "first message must be a join"})
			continue
		}
		var join joinPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &join); err != nil {
				writeDirect(ctx, conn, "error", errorPayload{Message: "invalid join payload"})
				continue
			}
		}
		join.PlayerID = strings.TrimSpace(join.PlayerID)
		if join.PlayerID == "" {
			join.PlayerID = uuid.NewString()
		}
		name := strings.TrimSpace(join.DisplayName)
		if name == "" {
			name = "Player"
		}

		send := make(chan []byte, sendBuffer)
		if !s.hub.register(join.PlayerID, send) {
			writeDirect(ctx, conn, "error", errorPayload{Message: "player already connected"})
			continue
		}
		sess, err := s.manager.JoinOrCreate(join.PlayerID, name, strings.TrimSpace(join.SessionID))
		if err != nil {
			s.hub.unregister(join.PlayerID)
			msgType, payload := reply(err)
			writeDirect(ctx, conn, msgType, payload)
			continue
		}
		return join.PlayerID, sess, send, true
	}
}

func (s *Server) handleMessage(playerID string, msg WSMessage) {
	var (
		sess *session.Session
		err  error
	)
	switch msg.Type {
	case "play":
		var p playPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendTo(playerID, "error", errorPayload{Message: "invalid play payload"})
			return
		}
		placements, ok := toPlacements(p.Placements)
		if !ok {
			s.sendError(playerID, game.ErrInvalidPlacement)
			return
		}
		sess, _, err = s.manager.Play(playerID, placements)

	case "pass":
		sess, _, err = s.manager.Pass(playerID)

	case "exchange":
		var p exchangePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendTo(playerID, "error", errorPayload{Message: "invalid exchange payload"})
			return
		}
		sess, _, err = s.manager.Exchange(playerID, []rune(strings.ToUpper(p.Letters)))

	case "start":
		cur, ok := s.manager.SessionFor(playerID)
		if !ok {
			s.sendError(playerID, game.ErrNotInSession)
			return
		}
		sess, err = cur, s.manager.Start(cur.ID, playerID)

	case "join":
		s.sendError(playerID, game.ErrAlreadyInSession)
		return

	default:
		s.sendTo(playerID, "error", errorPayload{Message: "unknown message type: " + msg.Type})
		return
	}

	if err != nil {
		s.sendError(playerID, err)
		return
	}
	s.broadcastState(sess)
}

// toPlacements converts wire placements; each letter must be one character.
func toPlacements(in []placementPayload) ([]rules.Placement, bool) {
	out := make([]rules.Placement, len(in))
	for i, p := range in {
		r, size := utf8.DecodeRuneInString(p.Letter)
		if size == 0 || size != len(p.Letter) {
			return nil, false
		}
		out[i] = rules.Placement{Letter: r, Blank: p.Blank, Row: p.Row, Col: p.Col}
	}
	return out, true
}

// reply turns an error into a message type and payload: rejections keep
// their code, anything else becomes a plain error.
func reply(err error) (string, any) {
	var rej *game.Rejection
	if errors.As(err, &rej) {
		return "rejected", rej
	}
	return "error", errorPayload{Message: err.Error()}
}

func (s *Server) sendError(playerID string, err error) {
	msgType, payload := reply(err)
	s.sendTo(playerID, msgType, payload)
}

// broadcastState sends every connected player in sess their private view.
func (s *Server) broadcastState(sess *session.Session) {
	for _, pid := range sess.PlayerIDs() {
		s.sendTo(pid, "state", sess.PrivateView(pid))
	}
}

func (s *Server) sendTo(playerID, msgType string, payload any) {
	msg, err := encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("encode message")
		return
	}
	s.hub.send(playerID, msg)
}

func encode(msgType string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: p})
}

// writeDirect writes to a connection that has no writer goroutine yet.
func writeDirect(ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	msg, err := encode(msgType, payload)
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		log.Debug().Err(err).Msg("websocket write")
	}
}
