package models

// All lists every table model, in dependency order, for sqlite auto-migration in tests and local runs.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Sale{},
		&Payment{},
		&WalletAccount{},
		&WalletTransaction{},
		&PickupSlotBooking{},
		&Notification{},
		&NotificationPreference{},
		&Receipt{},
		&DocumentSequence{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
