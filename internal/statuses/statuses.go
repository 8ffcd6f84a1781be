package statuses

const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusEnded   = "ended"
)

const (
	WinReasonResign        = "resign"
	WinReasonTimeout       = "timeout"
	WinReasonScore         = "score"
	WinReasonCaptureTarget = "capture_target"
	WinReasonRow           = "row_of_five"
	WinReasonFoulLimit     = "foul_limit"
	WinReasonThiefCaught   = "thief_caught"
	WinReasonThiefEscaped  = "thief_escaped"
	WinReasonNoStonesLeft  = "no_stones_left"
	WinReasonClosestStone  = "closest_stone"
	WinReasonAbandoned     = "abandoned"
	WinReasonForceEnded    = "force_ended"
)
