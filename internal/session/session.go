package session

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"tilegame/internal/game"
	"tilegame/internal/game/board"
	"tilegame/internal/game/rules"
	"tilegame/internal/game/tile"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// EndReason records why a game finished.
type EndReason string

const (
	EndRackAndBagEmpty EndReason = "rack_and_bag_empty"
	EndPlayerLeft      EndReason = "player_left"
	EndAllPassed       EndReason = "all_passed"
)

// Player is a participant. Rack and Score are owned by the session.
type Player struct {
	ID      string
	Name    string
	Score   int
	Rack    []tile.Tile
	HasTurn bool
}

// Options configures a new session. Zero values fall back to the standard
// board and tile set.
type Options struct {
	MaxPlayers   int
	Layout       board.Layout
	Distribution tile.Distribution
	Words        rules.WordChecker
	Rand         *rand.Rand
}

// Session is one game: board, bag, players in turn order, and history.
// Every exported method takes the session lock, so at most one mutation is
// in flight at a time.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	maxPlayers int
	dist       tile.Distribution
	words      rules.WordChecker

	status    Status
	hostID    string
	players   []*Player
	board     *board.Board
	bag       *tile.Bag
	turn      int
	passes    int
	history   []MoveRecord
	endReason EndReason
	endedAt   time.Time
	results   []game.PlayerResult

	archived sync.Once // guards the archive row's creation
}

// New creates a session in the waiting state.
func New(id string, opts Options) *Session {
	if opts.Words == nil {
		panic("session: word checker required")
	}
	if opts.MaxPlayers < 2 {
		opts.MaxPlayers = 2
	}
	if opts.Layout == nil {
		opts.Layout = board.Standard
	}
	if opts.Distribution.Letters == nil {
		opts.Distribution = tile.English
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		maxPlayers: opts.MaxPlayers,
		dist:       opts.Distribution,
		words:      opts.Words,
		status:     StatusWaiting,
		board:      board.New(opts.Layout),
		bag:        tile.NewBag(opts.Distribution, opts.Rand),
	}
}

// AddPlayer admits a player while the session is waiting.
func (s *Session) AddPlayer(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return game.ErrSessionAlreadyStarted
	}
	if s.indexOf(id) >= 0 {
		return game.ErrAlreadyInSession
	}
	if len(s.players) >= s.maxPlayers {
		return game.ErrSessionFull
	}
	s.players = append(s.players, &Player{ID: id, Name: name})
	if s.hostID == "" {
		s.hostID = id
	}
	return nil
}

// Start deals full racks and gives the first player the turn.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusPlaying:
		return game.ErrSessionAlreadyStarted
	case StatusFinished:
		return game.ErrNotPlaying
	}
	if len(s.players) < 2 {
		return game.ErrNotEnoughPlayers
	}
	for _, p := range s.players {
		p.Rack = s.bag.Draw(tile.RackSize)
	}
	s.turn = 0
	s.players[0].HasTurn = true
	s.status = StatusPlaying
	s.checkInvariants()
	return nil
}

// Play validates placements with the rules engine and, only if accepted,
// applies them: board, rack refill, score, pass streak, and turn.
func (s *Session) Play(playerID string, placements []rules.Placement) (*MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.player(playerID)
	if p == nil {
		return nil, game.ErrNotInSession
	}
	play, err := rules.Evaluate(rules.Input{
		Board:      s.board,
		Rack:       p.Rack,
		Playing:    s.status == StatusPlaying,
		HasTurn:    p.HasTurn,
		Placements: placements,
	}, s.words)
	if err != nil {
		return nil, err
	}

	for _, pt := range play.Placed {
		s.board.Place(pt.Pos, pt.Tile)
	}
	for _, pos := range play.Consumed {
		s.board.ConsumePremium(pos)
	}
	p.Rack = append(play.Rest, s.bag.Draw(tile.RackSize-len(play.Rest))...)
	p.Score += play.Total
	s.passes = 0

	rec := s.record(MoveRecord{
		PlayerID: p.ID,
		Kind:     MovePlay,
		Words:    play.Words,
		Score:    play.Total,
		Bingo:    play.Bingo,
	})
	s.finishTurn(&rec)
	return &rec, nil
}

// Pass gives up the turn. The game ends once every player has passed twice
// in a row.
func (s *Session) Pass(playerID string) (*MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.player(playerID)
	if p == nil {
		return nil, game.ErrNotInSession
	}
	if s.status != StatusPlaying || !p.HasTurn {
		return nil, game.ErrNotYourTurn
	}
	s.passes++
	rec := s.record(MoveRecord{PlayerID: p.ID, Kind: MovePass})
	s.finishTurn(&rec)
	return &rec, nil
}

// Exchange swaps rack tiles for fresh ones from the bag. Letters name the
// tiles to give back; tile.BlankLetter names a blank. An exchange does not
// score but breaks a pass streak.
func (s *Session) Exchange(playerID string, letters []rune) (*MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.player(playerID)
	if p == nil {
		return nil, game.ErrNotInSession
	}
	if s.status != StatusPlaying || !p.HasTurn {
		return nil, game.ErrNotYourTurn
	}
	if s.bag.Len() == 0 {
		return nil, game.ErrBagEmpty
	}
	if len(letters) == 0 {
		return nil, game.ErrTileNotInRack
	}
	want := make([]tile.Want, len(letters))
	for i, r := range letters {
		want[i] = tile.Want{Letter: r, Blank: r == tile.BlankLetter}
	}
	rest, removed, ok := tile.RemoveFromRack(p.Rack, want)
	if !ok {
		return nil, game.ErrTileNotInRack
	}

	s.bag.ReturnAndReshuffle(removed)
	p.Rack = append(rest, s.bag.Draw(len(removed))...)
	s.passes = 0
	rec := s.record(MoveRecord{PlayerID: p.ID, Kind: MoveExchange, Exchanged: len(removed)})
	s.finishTurn(&rec)
	return &rec, nil
}

// RemovePlayer drops a player, returning their rack to the bag. If they
// held the turn it moves to the next remaining player. A game left with
// fewer than two players ends. It reports whether the player was present
// and whether the removal ended the game.
func (s *Session) RemovePlayer(id string) (removed, ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, false
	}
	p := s.players[i]
	if len(p.Rack) > 0 {
		s.bag.ReturnAndReshuffle(p.Rack)
		p.Rack = nil
	}
	s.players = slices.Delete(s.players, i, i+1)
	if s.hostID == id {
		s.hostID = ""
		if len(s.players) > 0 {
			s.hostID = s.players[0].ID
		}
	}

	if s.status == StatusPlaying {
		switch {
		case i < s.turn:
			s.turn--
		case p.HasTurn:
			s.turn = i % len(s.players)
			s.players[s.turn].HasTurn = true
		}
		// only the seat count can end a game here; pass streaks are judged on passes
		if len(s.players) < 2 {
			s.end(EndPlayerLeft)
			ended = true
		}
	}
	s.checkInvariants()
	return true, ended
}

// finishTurn ends the game if an end condition holds, otherwise passes the
// turn on. Caller holds the lock and has just recorded rec.
func (s *Session) finishTurn(rec *MoveRecord) {
	if s.checkEnd() {
		rec.GameOver = true
		s.history[len(s.history)-1].GameOver = true
	} else {
		s.advanceTurn()
	}
	s.checkInvariants()
}

func (s *Session) advanceTurn() {
	s.players[s.turn].HasTurn = false
	s.turn = (s.turn + 1) % len(s.players)
	s.players[s.turn].HasTurn = true
}

// checkEnd evaluates the end conditions and finishes the game if one holds.
func (s *Session) checkEnd() bool {
	if s.status != StatusPlaying {
		return false
	}
	switch {
	case len(s.players) < 2:
		s.end(EndPlayerLeft)
	case s.bag.Len() == 0 && s.anyRackEmpty():
		s.end(EndRackAndBagEmpty)
	case s.passes >= 2*len(s.players):
		s.end(EndAllPassed)
	default:
		return false
	}
	return true
}

func (s *Session) anyRackEmpty() bool {
	for _, p := range s.players {
		if len(p.Rack) == 0 {
			return true
		}
	}
	return false
}

// end finishes the game and settles final scores: everyone loses the value
// of their unplayed tiles, floored at zero, and a player who went out gains
// the unplayed value of every opponent.
func (s *Session) end(reason EndReason) {
	s.status = StatusFinished
	s.endReason = reason
	s.endedAt = time.Now()

	var out *Player
	bonus := 0
	for _, p := range s.players {
		p.HasTurn = false
		if reason == EndRackAndBagEmpty && out == nil && len(p.Rack) == 0 {
			out = p
			continue
		}
		left := tile.RackValue(p.Rack)
		bonus += left
		p.Score = max(0, p.Score-left)
	}
	if out != nil {
		out.Score += bonus
	}
	s.results = rank(s.players)
}

// rank orders players by score; equal scores share a rank.
func rank(players []*Player) []game.PlayerResult {
	results := make([]game.PlayerResult, len(players))
	for i, p := range players {
		results[i] = game.PlayerResult{PlayerID: p.ID, Name: p.Name, Score: p.Score}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Rank = i + 1
		if i > 0 && results[i].Score == results[i-1].Score {
			results[i].Rank = results[i-1].Rank
		}
	}
	return results
}

// checkInvariants panics on states no valid sequence of operations can
// produce; they indicate a lifecycle bug, not bad input.
func (s *Session) checkInvariants() {
	holders := 0
	for _, p := range s.players {
		if p.HasTurn {
			holders++
		}
	}
	if s.status == StatusPlaying {
		if len(s.players) < 2 || len(s.players) > s.maxPlayers {
			panic(fmt.Sprintf("session %s: playing with %d players", s.ID, len(s.players)))
		}
		if s.turn < 0 || s.turn >= len(s.players) {
			panic(fmt.Sprintf("session %s: turn index %d out of range", s.ID, s.turn))
		}
		if holders != 1 || !s.players[s.turn].HasTurn {
			panic(fmt.Sprintf("session %s: %d players hold the turn", s.ID, holders))
		}
	} else if holders != 0 {
		panic(fmt.Sprintf("session %s: %d players hold the turn while %s", s.ID, holders, s.status))
	}

	if got, want := s.tileCount(), s.dist.Total(); got != want {
		panic(fmt.Sprintf("session %s: %d tiles accounted for, want %d", s.ID, got, want))
	}
}

// tileCount sums the bag, every rack, and the board.
func (s *Session) tileCount() int {
	n := s.bag.Len() + s.board.OccupiedCount()
	for _, p := range s.players {
		n += len(p.Rack)
	}
	return n
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.players, func(p *Player) bool { return p.ID == id })
}

func (s *Session) player(id string) *Player {
	if i := s.indexOf(id); i >= 0 {
		return s.players[i]
	}
	return nil
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HostID returns the player allowed to start the game early.
func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostID
}

// PlayerCount returns the number of players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// PlayerIDs returns player IDs in turn order.
func (s *Session) PlayerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	return ids
}

// Full reports whether no more players can join.
func (s *Session) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) >= s.maxPlayers
}

// Results returns final standings once finished.
func (s *Session) Results() []game.PlayerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// History returns every recorded action in order.
func (s *Session) History() []MoveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// EndedAt returns when the game finished, or the zero time.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// EndReason returns why the game finished, or "" while it runs.
func (s *Session) EndReason() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// Info is the lobby summary of a session.
type Info struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Players    []string  `json:"players"`
	HostID     string    `json:"hostId"`
	MaxPlayers int       `json:"maxPlayers"`
	EndReason  EndReason `json:"endReason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Info snapshots the lobby summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	return Info{
		ID:         s.ID,
		Status:     s.status,
		Players:    ids,
		HostID:     s.hostID,
		MaxPlayers: s.maxPlayers,
		EndReason:  s.endReason,
		CreatedAt:  s.CreatedAt,
	}
}
