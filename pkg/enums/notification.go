package enums

import "fmt"

// NotificationType tags the event class a notification row was emitted for.
type NotificationType string

const (
	NotificationTypeNewRequest   NotificationType = "New Request"
	NotificationTypeStatusUpdate NotificationType = "Status Update"
	NotificationTypeNegotiation  NotificationType = "Negotiation"
	NotificationTypeMessage      NotificationType = "Message"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewRequest,
	NotificationTypeStatusUpdate,
	NotificationTypeNegotiation,
	NotificationTypeMessage,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts the raw string to NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// DeliveryChannel identifies an outbound notification channel.
type DeliveryChannel string

const (
	ChannelEmail    DeliveryChannel = "email"
	ChannelWhatsApp DeliveryChannel = "whatsapp"
)
