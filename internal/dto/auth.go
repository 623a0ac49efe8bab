package dto

// LoginRequest carries a terminal's provisioned credentials.
type LoginRequest struct {
	TerminalID string `json:"terminalID" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// LoginResponse returns the session token for an authenticated terminal.
type LoginResponse struct {
	Token string `json:"token"`
}
