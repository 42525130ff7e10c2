package postgres

import "github.com/platinummonkey/boxoffice/pkg/analytics"

// NewRepositories builds every analytics repository on db
func NewRepositories(db *DB) analytics.Repositories {
	return analytics.Repositories{
		Orders:     NewOrderRepository(db),
		Refunds:    NewRefundRepository(db),
		OrderItems: NewOrderItemRepository(db),
		RSVPs:      NewRSVPRepository(db),
		Events:     NewEventRepository(db),
	}
}
