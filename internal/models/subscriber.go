package models

import "time"

type Subscriber struct {
	SubscriberID string    `json:"subscriber_id"`
	Destination  string    `json:"destination"` // E.164 phone number or transport specific address
	CreatedAt    time.Time `json:"created_at"`
}
