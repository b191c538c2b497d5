package api

// ReservationResponse is the API response for a reservation record.
type ReservationResponse struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Restaurant string `json:"restaurant"`
	BookingURL string `json:"booking_url,omitempty"`
	People     int    `json:"people"`
	Time       string `json:"time"`
	Allergies  string `json:"allergies"`
	GuestName  string `json:"guest_name"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

// ForwardResponse is the API response for a forward attempt.
type ForwardResponse struct {
	ID            string `json:"id"`
	Restaurant    string `json:"restaurant"`
	ResponseCode  int    `json:"response_code"`
	AttemptNumber int    `json:"attempt_number"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	CreatedAt     string `json:"created_at"`
}

// DeadLetterResponse is the API response for a dead letter.
type DeadLetterResponse struct {
	ID         string `json:"id"`
	Restaurant string `json:"restaurant"`
	LastError  string `json:"last_error"`
	Attempts   int    `json:"attempts"`
	CreatedAt  string `json:"created_at"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
