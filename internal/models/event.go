package models

// WebhookEvent is the body Strava POSTs to the webhook endpoint.
// Docs: https://developers.strava.com/docs/webhooks/
type WebhookEvent struct {
	ObjectType     string            `json:"object_type"` // "activity" or "athlete"
	ObjectID       int64             `json:"object_id"`
	AspectType     string            `json:"aspect_type"` // "create", "update" or "delete"
	OwnerID        int64             `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id"`
	EventTime      int64             `json:"event_time"`
	Updates        map[string]string `json:"updates,omitempty"`
}

// RelayEvent is the message carried on the internal topic from the webhook
// receiver to the publisher. EventID only correlates log lines across the
// two halves of the relay.
type RelayEvent struct {
	EventID    string `json:"event_id"`
	UserID     int64  `json:"user_id"`
	ActivityID int64  `json:"activity_id"`
	EventType  string `json:"event_type"`
}
