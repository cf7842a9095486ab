package models

import "time"

// DeliveryReport aggregates the delivery journal over a period. It is stored
// in MongoDB and sent to the bot admin.
type DeliveryReport struct {
	PeriodStart  time.Time `bson:"period_start" json:"period_start"`
	PeriodEnd    time.Time `bson:"period_end" json:"period_end"`
	Sent         int       `bson:"sent" json:"sent"`
	Delivered    int       `bson:"delivered" json:"delivered"`
	Seen         int       `bson:"seen" json:"seen"`
	Failed       int       `bson:"failed" json:"failed"`
	Received     int       `bson:"received" json:"received"`
	Subscribed   int       `bson:"subscribed" json:"subscribed"`
	Unsubscribed int       `bson:"unsubscribed" json:"unsubscribed"`
	DeliveryRate float64   `bson:"delivery_rate" json:"delivery_rate"`
	SeenRate     float64   `bson:"seen_rate" json:"seen_rate"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
