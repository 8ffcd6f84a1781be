package game

type ActionType string

const (
	ActionPlace       ActionType = "place"
	ActionPass        ActionType = "pass"
	ActionResign      ActionType = "resign"
	ActionBid         ActionType = "bid"
	ActionPlaceHidden ActionType = "place_hidden"
	ActionFireMissile ActionType = "fire_missile"
	ActionRollDice    ActionType = "roll_dice"
	ActionPlaceThief  ActionType = "place_thief"
	ActionMoveThief   ActionType = "move_thief"
	ActionFlick       ActionType = "flick"
	ActionPause       ActionType = "pause"
	ActionResume      ActionType = "resume"

	// ActionTimeoutForfeit is synthetic: only the clock manager submits
	// it, it always succeeds and always ends the game.
	ActionTimeoutForfeit ActionType = "timeout_forfeit"
)

// Action is the single inbound mutation shape. MoveIndex is the client's
// view of the history length and makes duplicate submissions rejectable.
type Action struct {
	Type      ActionType `json:"type"`
	MoveIndex int        `json:"move_index"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	Bid       int        `json:"bid,omitempty"`
	StoneID   int        `json:"stone_id,omitempty"`
	Angle     float64    `json:"angle,omitempty"`
	Power     float64    `json:"power,omitempty"`
}

type CreateGameRequest struct {
	Mode           Mode      `json:"mode"`
	Settings       *Settings `json:"settings,omitempty"`
	IsCreatorBlack bool      `json:"is_creator_black"`
	VsAi           bool      `json:"vs_ai"`
	AiLevel        int       `json:"ai_level,omitempty"`
}

type GameCreateResponse struct {
	UniqueKey string `json:"unique_key"`
	PublicKey string `json:"public_key"`
}

type GameJoinRequest struct {
	GameKey string `json:"game_key"`
	UserID  string `json:"user_id"`
}
