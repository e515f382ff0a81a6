package models

// UserState bundles the registers a user chain persists between
// invocations: its betting profile, protocol status, the play chain it is
// attached to, the discovery retry counter, the mirrored copy of the play
// chain's last published snapshot, and the private single-player game.
type UserState struct {
	Profile          Profile        `json:"profile"`
	Status           UserStatus     `json:"status"`
	PlayChain        ChainID        `json:"playChain,omitempty"`
	FindRetry        uint8          `json:"findRetry"`
	MirroredGame     *BlackjackGame `json:"mirroredGame,omitempty"`
	SinglePlayerGame *BlackjackGame `json:"singlePlayerGame,omitempty"`
}

// NewUserState returns the initial state of a freshly created user chain.
func NewUserState() *UserState {
	return &UserState{Status: UserIdle}
}
