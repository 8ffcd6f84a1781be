package errors

import "errors"

var (
	ErrUserNotFound      = errors.New("user with provided username was not found")
	ErrSessionNotFound   = errors.New("game session was not found")
	ErrCreateGameFailed  = errors.New("create game failed")
	ErrJoinGameFailed    = errors.New("join game failed")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameEnded         = errors.New("game already ended")
	ErrGamePaused        = errors.New("game is paused")
	ErrSessionBusy       = errors.New("session lock wait timed out")
	ErrPersistenceFailed = errors.New("failed to persist session snapshot")
	ErrAiService         = errors.New("ai service failure")
	ErrInternal          = errors.New("internal error")
)

// Reason is the machine-readable code attached to a rejected action. The
// acting client is the only party that ever sees it; rejected actions are
// never broadcast.
type Reason string

const (
	ReasonOccupied         Reason = "occupied"
	ReasonOutOfBounds      Reason = "out_of_bounds"
	ReasonKo               Reason = "ko"
	ReasonSuicide          Reason = "suicide"
	ReasonForbiddenPattern Reason = "forbidden_pattern"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonNotParticipant   Reason = "not_participant"
	ReasonPhaseMismatch    Reason = "action_not_allowed_in_phase"
	ReasonStaleAction      Reason = "stale_action"
	ReasonNoCharges        Reason = "no_charges_left"
	ReasonNoBudget         Reason = "no_placements_left"
	ReasonBadAction        Reason = "malformed_action"
)

// MoveError is a recoverable rejection of a single action. State is
// guaranteed unchanged when one is returned.
type MoveError struct {
	Reason Reason
}

func NewMoveError(reason Reason) *MoveError {
	return &MoveError{Reason: reason}
}

func (e *MoveError) Error() string {
	return string(e.Reason)
}

// AsMoveError unwraps err into a MoveError if it is one.
func AsMoveError(err error) (*MoveError, bool) {
	var moveErr *MoveError
	if errors.As(err, &moveErr) {
		return moveErr, true
	}
	return nil, false
}
