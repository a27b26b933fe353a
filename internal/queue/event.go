// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ReservationConfirmedEvent is published when a reservation is confirmed.
// It carries enough context for downstream consumers to log or notify
// without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64    `json:"reservation_id"`
	UserEmail     string    `json:"user_email"`
	Branch        string    `json:"branch"`
	Date          string    `json:"date"`
	Tables        []string  `json:"tables"`
	Guests        int       `json:"guests"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
