package domain

// Reward is a channel-points redeemable configured by a broadcaster.
type Reward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Prompt string `json:"prompt"`
}

// EventSubSubscription is a webhook subscription registered with Twitch.
type EventSubSubscription struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Type      string            `json:"type"`
	Condition map[string]string `json:"condition"`
}

// RewardID returns the reward id the subscription listens for, if any.
func (s EventSubSubscription) RewardID() string {
	return s.Condition["reward_id"]
}

// Enabled reports whether Twitch considers the subscription active.
func (s EventSubSubscription) Enabled() bool {
	return s.Status == "enabled"
}
