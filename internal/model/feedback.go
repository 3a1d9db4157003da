package model

import "time"

type FeedbackMessage struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	UserMessageID *int      `json:"user_message_id,omitempty"`
	MediaIDs      *string   `json:"media_ids,omitempty"` // JSON {"photo": "<file_id>"}
	Text          *string   `json:"text,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// FeedbackMedia вложения фидбека
type FeedbackMedia struct {
	Photo    string `json:"photo,omitempty"`
	Document string `json:"document,omitempty"`
	Video    string `json:"video,omitempty"`
}
