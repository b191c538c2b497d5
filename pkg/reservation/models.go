package reservation

import (
	"github.com/pitabwire/frame/data"
)

// Reservation lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

// Record is one persisted reservation request collected by the bot.
type Record struct {
	data.BaseModel

	SessionID  string `gorm:"type:varchar(50);not null;index:idx_res_session" json:"session_id"`
	Restaurant string `gorm:"type:varchar(255);not null"                      json:"restaurant"`
	BookingURL string `gorm:"type:varchar(2048)"                              json:"booking_url,omitempty"`
	People     int    `gorm:"not null"                                        json:"people"`
	Time       string `gorm:"type:varchar(10);not null"                       json:"time"`
	Allergies  string `gorm:"type:text"                                       json:"allergies"`
	GuestName  string `gorm:"type:varchar(255);not null"                      json:"guest_name"`
	Status     string `gorm:"type:varchar(20);not null;default:'pending';index:idx_res_status" json:"status"`
	Attempts   int    `gorm:"default:0"                                       json:"attempts"`
	LastError  string `gorm:"type:text"                                       json:"last_error,omitempty"`
}

func (Record) TableName() string { return "reservations" }

// ForwardAttempt records one attempt to send a reservation to a
// restaurant's booking endpoint.
type ForwardAttempt struct {
	data.BaseModel

	ReservationID string `gorm:"type:varchar(50);not null;index:idx_fa_reservation" json:"reservation_id"`
	Restaurant    string `gorm:"type:varchar(255);not null"                          json:"restaurant"`
	RequestBody   string `gorm:"type:text"                                           json:"-"`
	ResponseCode  int    `gorm:"default:0"                                           json:"response_code"`
	ResponseBody  string `gorm:"type:text"                                           json:"-"`
	AttemptNumber int    `gorm:"default:1"                                           json:"attempt_number"`
	Status        string `gorm:"type:varchar(20);not null;index:idx_fa_status"       json:"status"`
	Error         string `gorm:"type:text"                                           json:"error,omitempty"`
	DurationMs    int64  `gorm:"default:0"                                           json:"duration_ms"`
}

func (ForwardAttempt) TableName() string { return "forward_attempts" }

// DeadLetter holds reservations whose forwarding exhausted all retries.
type DeadLetter struct {
	data.BaseModel

	ReservationID string `gorm:"type:varchar(50);not null;index:idx_dl_reservation" json:"reservation_id"`
	Restaurant    string `gorm:"type:varchar(255);not null"                          json:"restaurant"`
	BookingURL    string `gorm:"type:varchar(2048)"                                  json:"booking_url"`
	Payload       string `gorm:"type:text;not null"                                  json:"payload"`
	LastError     string `gorm:"type:text"                                           json:"last_error"`
	Attempts      int    `gorm:"default:0"                                           json:"attempts"`
	Replayable    bool   `gorm:"default:true"                                        json:"replayable"`
}

func (DeadLetter) TableName() string { return "reservation_dead_letters" }
