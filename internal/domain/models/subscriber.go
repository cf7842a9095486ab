package models

import "time"

// Subscriber is a Viber user who subscribed to the bot.
type Subscriber struct {
	ID             string     `bson:"_id" json:"id"`
	Name           string     `bson:"name,omitempty" json:"name,omitempty"`
	Avatar         string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Country        string     `bson:"country,omitempty" json:"country,omitempty"`
	Language       string     `bson:"language,omitempty" json:"language,omitempty"`
	APIVersion     int        `bson:"api_version,omitempty" json:"api_version,omitempty"`
	Subscribed     bool       `bson:"subscribed" json:"subscribed"`
	SubscribedAt   time.Time  `bson:"subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `bson:"unsubscribed_at,omitempty" json:"unsubscribed_at,omitempty"`
}
