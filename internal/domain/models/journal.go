package models

import (
	"fmt"
	"time"
)

// JournalKind names what a delivery journal row records.
type JournalKind string

const (
	JournalSent         JournalKind = "sent"
	JournalReceived     JournalKind = "received"
	JournalDelivered    JournalKind = "delivered"
	JournalSeen         JournalKind = "seen"
	JournalFailed       JournalKind = "failed"
	JournalSubscribed   JournalKind = "subscribed"
	JournalUnsubscribed JournalKind = "unsubscribed"
)

// JournalTimeLayout is how timestamps are written to the sheet.
const JournalTimeLayout = time.RFC3339

// JournalEntry is one row of the delivery journal.
type JournalEntry struct {
	Time         time.Time
	Kind         JournalKind
	UserID       string
	MessageToken string
	TrackingData string
	Detail       string
}

// Row renders the entry as sheet cells.
func (e JournalEntry) Row() []interface{} {
	return []interface{}{
		e.Time.UTC().Format(JournalTimeLayout),
		string(e.Kind),
		e.UserID,
		e.MessageToken,
		e.TrackingData,
		e.Detail,
	}
}

// ParseJournalRow reads back a row written by Row. Trailing empty cells may
// be missing since the Sheets API trims them.
func ParseJournalRow(row []interface{}) (JournalEntry, error) {
	if len(row) < 2 {
		return JournalEntry{}, fmt.Errorf("journal row has %d cells, want at least 2", len(row))
	}

	at, err := time.Parse(JournalTimeLayout, fmt.Sprint(row[0]))
	if err != nil {
		return JournalEntry{}, fmt.Errorf("parse journal time: %w", err)
	}

	cell := func(i int) string {
		if i < len(row) {
			return fmt.Sprint(row[i])
		}
		return ""
	}

	return JournalEntry{
		Time:         at,
		Kind:         JournalKind(cell(1)),
		UserID:       cell(2),
		MessageToken: cell(3),
		TrackingData: cell(4),
		Detail:       cell(5),
	}, nil
}
