package enums

import "fmt"

// NotificationType maps to the notifications.type column.
type NotificationType string

const (
	NotificationOrderUpdate      NotificationType = "order_update"
	NotificationPayment          NotificationType = "payment"
	NotificationReceipt          NotificationType = "receipt"
	NotificationDebtWarning      NotificationType = "debt_warning_2days"
	NotificationDebtWarningAdmin NotificationType = "debt_warning_admin_2days"
	NotificationDebtOverdue      NotificationType = "debt_overdue"
	NotificationDebtOverdueAdmin NotificationType = "debt_overdue_admin"
	NotificationOverdueReminder  NotificationType = "overdue_reminder"
	NotificationPickupReminder   NotificationType = "pickup_reminder"
	NotificationNewOrder         NotificationType = "new_order"
	NotificationGeneral          NotificationType = "general"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderUpdate,
	NotificationPayment,
	NotificationReceipt,
	NotificationDebtWarning,
	NotificationDebtWarningAdmin,
	NotificationDebtOverdue,
	NotificationDebtOverdueAdmin,
	NotificationOverdueReminder,
	NotificationPickupReminder,
	NotificationNewOrder,
	NotificationGeneral,
}

// String implements fmt.Stringer.
func (v NotificationType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationType.
func (v NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority ranks how urgently a notification should surface.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

var validNotificationPriorities = []NotificationPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
}

// String implements fmt.Stringer.
func (v NotificationPriority) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationPriority.
func (v NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw input into a NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}

// NotificationChannel is a delivery channel requested for a notification.
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
	ChannelPush  NotificationChannel = "push"
	ChannelEmail NotificationChannel = "email"
)

var validNotificationChannels = []NotificationChannel{
	ChannelInApp,
	ChannelPush,
	ChannelEmail,
}

// String implements fmt.Stringer.
func (v NotificationChannel) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationChannel.
func (v NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw input into a NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}
