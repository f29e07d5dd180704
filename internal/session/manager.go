package session

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tilegame/internal/game"
	"tilegame/internal/game/board"
	"tilegame/internal/game/rules"
	"tilegame/internal/game/tile"
	"tilegame/internal/storage"
)

// Recorder archives session events. *storage.Store implements it.
type Recorder interface {
	CreateSession(code string, createdAt time.Time) error
	UpdateSessionStatus(code, status string) error
	AppendMove(m storage.Move) error
	FinishSession(code, endReason string, endedAt time.Time) error
	SaveResults(code string, results []storage.Result) error
}

// Config holds the settings shared by every session a Manager creates.
type Config struct {
	MaxPlayers   int
	Words        rules.WordChecker
	Layout       board.Layout      // nil means board.Standard
	Distribution tile.Distribution // zero means tile.English
	Seed         int64             // 0 seeds from the clock
}

// Manager manages all active sessions and which session each player is in.
// Lock order is always Manager then Session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string          // creation order, for matchmaking
	players  map[string]string // player ID -> session ID
	rng      *rand.Rand        // guarded by mu
	cfg      Config
	rec      Recorder
}

// NewManager creates a session manager. rec may be nil.
func NewManager(cfg Config, rec Recorder) *Manager {
	if cfg.MaxPlayers < 2 {
		cfg.MaxPlayers = 2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		players:  make(map[string]string),
		rng:      rand.New(rand.NewSource(seed)),
		cfg:      cfg,
		rec:      rec,
	}
}

// MaxPlayers returns the seat count of every session.
func (m *Manager) MaxPlayers() int {
	return m.cfg.MaxPlayers
}

// JoinOrCreate seats a player. With a target session ID the player joins
// that session; without one they join the oldest waiting session with a
// free seat, or a new one. Re-joining the current session is a no-op.
func (m *Manager) JoinOrCreate(playerID, name, target string) (*Session, error) {
	s, err := m.join(playerID, name, target)
	if err != nil {
		return nil, err
	}
	m.archived(s)
	return s, nil
}

func (m *Manager) join(playerID, name, target string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sid, ok := m.players[playerID]; ok {
		if s := m.sessions[sid]; s != nil && s.Status() != StatusFinished {
			if target == "" || target == sid {
				return s, nil
			}
			return nil, game.ErrAlreadyInSession
		}
		delete(m.players, playerID)
	}

	var s *Session
	if target != "" {
		s = m.sessions[target]
		if s == nil {
			return nil, game.ErrSessionNotFound
		}
		if err := s.AddPlayer(playerID, name); err != nil {
			return nil, err
		}
	} else {
		for _, id := range m.order {
			c := m.sessions[id]
			if c.Status() == StatusWaiting && c.AddPlayer(playerID, name) == nil {
				s = c
				break
			}
		}
		if s == nil {
			s = m.create()
			if err := s.AddPlayer(playerID, name); err != nil {
				return nil, err
			}
		}
	}

	m.players[playerID] = s.ID
	log.Info().Str("session", s.ID).Str("player", playerID).Int("players", s.PlayerCount()).Msg("player joined")
	return s, nil
}

// create registers a new waiting session. Caller holds m.mu.
func (m *Manager) create() *Session {
	id := generateCode()
	for m.sessions[id] != nil {
		id = generateCode()
	}
	s := New(id, Options{
		MaxPlayers:   m.cfg.MaxPlayers,
		Layout:       m.cfg.Layout,
		Distribution: m.cfg.Distribution,
		Words:        m.cfg.Words,
		Rand:         rand.New(rand.NewSource(m.rng.Int63())),
	})
	m.sessions[id] = s
	m.order = append(m.order, id)
	log.Info().Str("session", id).Msg("session created")
	return s
}

// MaybeStart starts a waiting session once every seat is taken. It reports
// whether the session started.
func (m *Manager) MaybeStart(sessionID string) bool {
	s, ok := m.Get(sessionID)
	if !ok || s.Status() != StatusWaiting || !s.Full() {
		return false
	}
	if err := s.Start(); err != nil {
		return false
	}
	m.started(s)
	return true
}

// Start lets the host begin a waiting session before it is full.
func (m *Manager) Start(sessionID, playerID string) error {
	s, ok := m.Get(sessionID)
	if !ok {
		return game.ErrSessionNotFound
	}
	if s.HostID() != playerID {
		return game.ErrNotHost
	}
	if err := s.Start(); err != nil {
		return err
	}
	m.started(s)
	return nil
}

// archived creates the session's archive row once. Every other archive
// write for the session goes through it first, and none runs under m.mu.
func (m *Manager) archived(s *Session) {
	s.archived.Do(func() {
		if err := m.rec.CreateSession(s.ID, s.CreatedAt); err != nil {
			log.Error().Err(err).Str("session", s.ID).Msg("archive session")
		}
	})
}

func (m *Manager) started(s *Session) {
	m.archived(s)
	if err := m.rec.UpdateSessionStatus(s.ID, string(StatusPlaying)); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("archive status")
	}
	log.Info().Str("session", s.ID).Int("players", s.PlayerCount()).Msg("session started")
}

// Play submits placements for the player's current session.
func (m *Manager) Play(playerID string, placements []rules.Placement) (*Session, *MoveRecord, error) {
	s, ok := m.SessionFor(playerID)
	if !ok {
		return nil, nil, game.ErrNotInSession
	}
	rec, err := s.Play(playerID, placements)
	if err != nil {
		return s, nil, err
	}
	m.moved(s, rec)
	return s, rec, nil
}

// Pass gives up the player's turn.
func (m *Manager) Pass(playerID string) (*Session, *MoveRecord, error) {
	s, ok := m.SessionFor(playerID)
	if !ok {
		return nil, nil, game.ErrNotInSession
	}
	rec, err := s.Pass(playerID)
	if err != nil {
		return s, nil, err
	}
	m.moved(s, rec)
	return s, rec, nil
}

// Exchange swaps the named rack tiles.
func (m *Manager) Exchange(playerID string, letters []rune) (*Session, *MoveRecord, error) {
	s, ok := m.SessionFor(playerID)
	if !ok {
		return nil, nil, game.ErrNotInSession
	}
	rec, err := s.Exchange(playerID, letters)
	if err != nil {
		return s, nil, err
	}
	m.moved(s, rec)
	return s, rec, nil
}

func (m *Manager) moved(s *Session, rec *MoveRecord) {
	m.archived(s)
	err := m.rec.AppendMove(storage.Move{
		SessionCode: s.ID,
		Seq:         rec.Seq,
		PlayerID:    rec.PlayerID,
		Kind:        string(rec.Kind),
		Words:       rec.WordTexts(),
		Score:       rec.Score,
		CreatedAt:   rec.At,
	})
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Int("seq", rec.Seq).Msg("archive move")
	}
	if rec.GameOver {
		m.finished(s)
	}
}

func (m *Manager) finished(s *Session) {
	m.archived(s)
	reason := s.EndReason()
	if err := m.rec.FinishSession(s.ID, string(reason), s.EndedAt()); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("archive finish")
	}
	standings := s.Results()
	results := make([]storage.Result, len(standings))
	for i, r := range standings {
		results[i] = storage.Result{
			SessionCode: s.ID,
			PlayerID:    r.PlayerID,
			DisplayName: r.Name,
			Score:       r.Score,
			Rank:        r.Rank,
		}
	}
	if err := m.rec.SaveResults(s.ID, results); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("archive results")
	}
	log.Info().Str("session", s.ID).Str("reason", string(reason)).Msg("session finished")
}

// RemovePlayer takes a player out of their session, destroying the session
// once empty. It returns the session the player left, if any.
func (m *Manager) RemovePlayer(playerID string) (*Session, bool) {
	s, ended := m.remove(playerID)
	if s == nil {
		return nil, false
	}
	if ended {
		m.finished(s)
	}
	return s, true
}

func (m *Manager) remove(playerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sid, ok := m.players[playerID]
	if !ok {
		return nil, false
	}
	delete(m.players, playerID)
	s := m.sessions[sid]
	if s == nil {
		return nil, false
	}
	_, ended := s.RemovePlayer(playerID)
	log.Info().Str("session", sid).Str("player", playerID).Msg("player left")
	if s.PlayerCount() == 0 {
		m.destroy(sid)
	}
	return s, ended
}

// destroy forgets a session and unmaps its players. Caller holds m.mu.
func (m *Manager) destroy(sid string) {
	s := m.sessions[sid]
	if s == nil {
		return
	}
	for _, pid := range s.PlayerIDs() {
		if m.players[pid] == sid {
			delete(m.players, pid)
		}
	}
	delete(m.sessions, sid)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == sid })
	log.Info().Str("session", sid).Msg("session removed")
}

// Get returns a session by ID.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// SessionFor returns the session a player is seated in.
func (m *Manager) SessionFor(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[m.players[playerID]]
	return s, ok
}

// List returns info for all sessions in creation order.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.order))
	for _, id := range m.order {
		infos = append(infos, m.sessions[id].Info())
	}
	return infos
}

// CleanupLoop removes stale sessions every interval until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.cleanup(now, maxAge)
		}
	}
}

// cleanup drops finished sessions that ended more than maxAge before now,
// and waiting sessions nobody has filled in that time.
func (m *Manager) cleanup(now time.Time, maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []string
	for _, id := range m.order {
		s := m.sessions[id]
		switch s.Status() {
		case StatusFinished:
			if now.Sub(s.EndedAt()) > maxAge {
				stale = append(stale, id)
			}
		case StatusWaiting:
			if s.PlayerCount() == 0 || now.Sub(s.CreatedAt) > maxAge {
				stale = append(stale, id)
			}
		}
	}
	for _, id := range stale {
		m.destroy(id)
	}
	if len(stale) > 0 {
		log.Info().Int("removed", len(stale)).Msg("cleaned up sessions")
	}
	return len(stale)
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	crand.Read(b)
	return hex.EncodeToString(b)
}

type nopRecorder struct{}

func (nopRecorder) CreateSession(string, time.Time) error         { return nil }
func (nopRecorder) UpdateSessionStatus(string, string) error      { return nil }
func (nopRecorder) AppendMove(storage.Move) error                 { return nil }
func (nopRecorder) FinishSession(string, string, time.Time) error { return nil }
func (nopRecorder) SaveResults(string, []storage.Result) error    { return nil }
