package models

import "time"

// Booking is a facility request made by a user. Date holds the calendar day at
// midnight UTC; Time holds the hour and minute on the zero date.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Facility  string    `json:"facility"`
	Date      time.Time `json:"date"`
	Time      time.Time `json:"time"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
