package game

// Code identifies why a request was rejected.
type Code string

const (
	// Join-time
	CodeSessionNotFound       Code = "session_not_found"
	CodeSessionFull           Code = "session_full"
	CodeSessionAlreadyStarted Code = "session_already_started"
	CodeAlreadyInSession      Code = "already_in_session"

	// Move-time
	CodeNotYourTurn       Code = "not_your_turn"
	CodeTileNotInRack     Code = "tile_not_in_rack"
	CodeInvalidPlacement  Code = "invalid_placement"
	CodeNotConnected      Code = "not_connected"
	CodeMustStartAtCenter Code = "must_start_at_center"
	CodeInvalidWord       Code = "invalid_word"

	// Exchange-time
	CodeBagEmpty Code = "bag_empty"

	// Lifecycle
	CodeNotPlaying       Code = "not_playing"
	CodeNotHost          Code = "not_host"
	CodeNotEnoughPlayers Code = "not_enough_players"
	CodeNotInSession     Code = "not_in_session"
)

// Rejection is returned for requests that break a rule. It never indicates
// a server fault: state is left untouched when one is returned.
type Rejection struct {
	Code Code   `json:"code"`
	Word string `json:"word,omitempty"` // set for CodeInvalidWord
}

func (r *Rejection) Error() string {
	if r.Word != "" {
		return string(r.Code) + ": " + r.Word
	}
	return string(r.Code)
}

// Is matches any Rejection with the same code, so errors.Is(err, ErrNotYourTurn)
// works regardless of the Word field.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Code == r.Code
}

// Reject builds a Rejection for code.
func Reject(code Code) *Rejection {
	return &Rejection{Code: code}
}

var (
	ErrSessionNotFound       = Reject(CodeSessionNotFound)
	ErrSessionFull           = Reject(CodeSessionFull)
	ErrSessionAlreadyStarted = Reject(CodeSessionAlreadyStarted)
	ErrAlreadyInSession      = Reject(CodeAlreadyInSession)
	ErrNotYourTurn           = Reject(CodeNotYourTurn)
	ErrTileNotInRack         = Reject(CodeTileNotInRack)
	ErrInvalidPlacement      = Reject(CodeInvalidPlacement)
	ErrNotConnected          = Reject(CodeNotConnected)
	ErrMustStartAtCenter     = Reject(CodeMustStartAtCenter)
	ErrInvalidWord           = Reject(CodeInvalidWord)
	ErrBagEmpty              = Reject(CodeBagEmpty)
	ErrNotPlaying            = Reject(CodeNotPlaying)
	ErrNotHost               = Reject(CodeNotHost)
	ErrNotEnoughPlayers      = Reject(CodeNotEnoughPlayers)
	ErrNotInSession          = Reject(CodeNotInSession)
)

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"` // 1 = first place, ties share a rank
	Score    int    `json:"score"`
}
