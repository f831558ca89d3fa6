// internal/workers/basket/notify-basket/models.go
package notifybasket

import "basket-optimizer/internal/models"

type Input struct {
	UserID         string                `json:"userId"`
	BasketID       string                `json:"basketId,omitempty"`
	Mode           models.BasketMode     `json:"mode"`
	Budget         int64                 `json:"budget"`
	AggregateSpend int64                 `json:"aggregateSpend"`
	SelectedIDs    []string              `json:"selectedIds"`
	Items          []models.OutputRecord `json:"items,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
