// Package models defines API response shapes for reflectd endpoints.
package models

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Error creates an error response with the given message.
func Error(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// ErrorWithDetails creates an error response carrying field-level detail.
func ErrorWithDetails(message string, details []string) ErrorResponse {
	return ErrorResponse{Error: message, Details: details}
}

// SignedURLResponse is the body for GET /api/{slug}/coach/signed-url.
type SignedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

// SessionResponse is the body for POST /api/{slug}/session.
type SessionResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// ScoreResponse is the body for POST /api/score.
type ScoreResponse struct {
	SessionID     string        `json:"sessionId,omitempty"`
	Scores        ScoreAnalysis `json:"scores"`
	ModelUsed     string        `json:"modelUsed"`
	UsedFallback  bool          `json:"usedFallback"`
	SupabaseSaved bool          `json:"supabaseSaved"`
}

// CoachResponse is the body for POST /api/coach.
type CoachResponse struct {
	Reply string `json:"reply"`
}
