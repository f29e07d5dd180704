package session

import (
	"slices"
	"time"

	"tilegame/internal/game"
	"tilegame/internal/game/board"
	"tilegame/internal/game/rules"
	"tilegame/internal/game/tile"
)

// MoveKind distinguishes history entries.
type MoveKind string

const (
	MovePlay     MoveKind = "play"
	MovePass     MoveKind = "pass"
	MoveExchange MoveKind = "exchange"
)

// MoveRecord is one accepted action.
type MoveRecord struct {
	Seq       int          `json:"seq"`
	PlayerID  string       `json:"playerId"`
	Kind      MoveKind     `json:"kind"`
	Words     []rules.Word `json:"words,omitempty"`
	Score     int          `json:"score"`
	Bingo     bool         `json:"bingo,omitempty"`
	Exchanged int          `json:"exchanged,omitempty"`
	GameOver  bool         `json:"gameOver,omitempty"`
	At        time.Time    `json:"at"`
}

// WordTexts returns the formed words, main word first.
func (m MoveRecord) WordTexts() []string {
	out := make([]string, len(m.Words))
	for i, w := range m.Words {
		out[i] = w.Text
	}
	return out
}

// record stamps and appends a history entry. Caller holds the lock.
func (s *Session) record(rec MoveRecord) MoveRecord {
	rec.Seq = len(s.history) + 1
	rec.At = time.Now()
	s.history = append(s.history, rec)
	return rec
}

// PlayerSummary is what every player may see about a seat.
type PlayerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	RackCount int    `json:"rackCount"`
	HasTurn   bool   `json:"hasTurn"`
	Host      bool   `json:"host,omitempty"`
}

// PublicView is the session state shared with all players.
type PublicView struct {
	SessionID  string              `json:"sessionId"`
	Status     Status              `json:"status"`
	Board      [][]board.CellView  `json:"board"`
	Players    []PlayerSummary     `json:"players"`
	Turn       string              `json:"turn,omitempty"`
	BagCount   int                 `json:"bagCount"`
	MaxPlayers int                 `json:"maxPlayers"`
	LastMove   *MoveRecord         `json:"lastMove,omitempty"`
	EndReason  EndReason           `json:"endReason,omitempty"`
	Results    []game.PlayerResult `json:"results,omitempty"`
}

// PrivateView adds one player's own rack to the public view.
type PrivateView struct {
	PublicView
	PlayerID string      `json:"playerId"`
	Rack     []tile.Tile `json:"rack"`
}

// PublicView snapshots the shared state.
func (s *Session) PublicView() PublicView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicView()
}

// PrivateView snapshots the state as seen by playerID. An unknown player
// gets an empty rack.
func (s *Session) PrivateView(playerID string) PrivateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := PrivateView{PublicView: s.publicView(), PlayerID: playerID, Rack: []tile.Tile{}}
	if p := s.player(playerID); p != nil {
		v.Rack = slices.Clone(p.Rack)
	}
	return v
}

func (s *Session) publicView() PublicView {
	v := PublicView{
		SessionID:  s.ID,
		Status:     s.status,
		Board:      s.board.Rows(),
		Players:    make([]PlayerSummary, len(s.players)),
		BagCount:   s.bag.Len(),
		MaxPlayers: s.maxPlayers,
		EndReason:  s.endReason,
		Results:    slices.Clone(s.results),
	}
	for i, p := range s.players {
		v.Players[i] = PlayerSummary{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			RackCount: len(p.Rack),
			HasTurn:   p.HasTurn,
			Host:      p.ID == s.hostID,
		}
		if p.HasTurn {
			v.Turn = p.ID
		}
	}
	if n := len(s.history); n > 0 {
		last := s.history[n-1]
		v.LastMove = &last
	}
	return v
}
