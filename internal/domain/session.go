package domain

import "time"

// Session is the device-wide "who is logged in" record
type Session struct {
	CurrentUserID   string    `json:"currentUserId"`
	Role            Role      `json:"role"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	RememberMe      bool      `json:"rememberMe"`
	Token           string    `json:"token,omitempty"`
	TokenExpiresAt  time.Time `json:"tokenExpiresAt,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StopwatchState is the persisted workout timer snapshot
type StopwatchState struct {
	Centiseconds int64   `json:"centiseconds"`
	IsRunning    bool    `json:"isRunning"`
	Laps         []int64 `json:"laps"`
}
