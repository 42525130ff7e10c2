package postgres

// Row states the repositories filter on
const (
	StoreTypeOnline       = "online"
	OrderStateCompleted   = "completed"
	RefundStatusCompleted = "completed"
	RSVPStatusConfirmed   = "confirmed"
	EventStatusCancelled  = "cancelled"
)

// Schema is the DDL of the tables read by the repositories. Timestamps are
// unix seconds. The commerce system owns these tables; Schema exists for
// tests and local setups.
const Schema = `
CREATE TABLE IF NOT EXISTS stores (
	id         BIGSERIAL PRIMARY KEY,
	owner_id   BIGINT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'online',
	name       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_stores_owner ON stores (owner_id, type);

CREATE TABLE IF NOT EXISTS orders (
	id             BIGSERIAL PRIMARY KEY,
	store_id       BIGINT NOT NULL REFERENCES stores (id),
	state          TEXT NOT NULL,
	placed_at      BIGINT NOT NULL,
	total_number   NUMERIC(19, 6) NOT NULL DEFAULT 0,
	total_currency CHAR(3) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_store_state ON orders (store_id, state, placed_at);

CREATE TABLE IF NOT EXISTS order_items (
	id                  BIGSERIAL PRIMARY KEY,
	order_id            BIGINT NOT NULL REFERENCES orders (id),
	quantity            INTEGER NOT NULL DEFAULT 1,
	unit_price_number   NUMERIC(19, 6) NOT NULL DEFAULT 0,
	unit_price_currency CHAR(3) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id);

CREATE TABLE IF NOT EXISTS refunds (
	id         BIGSERIAL PRIMARY KEY,
	order_id   BIGINT NOT NULL REFERENCES orders (id),
	amount     NUMERIC(19, 6) NOT NULL,
	currency   TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refunds_order ON refunds (order_id, status, created_at);

CREATE TABLE IF NOT EXISTS events (
	id         BIGSERIAL PRIMARY KEY,
	store_id   BIGINT NOT NULL REFERENCES stores (id),
	status     TEXT NOT NULL,
	start_at   BIGINT NOT NULL,
	end_at     BIGINT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_store ON events (store_id, status);

CREATE TABLE IF NOT EXISTS rsvps (
	id         BIGSERIAL PRIMARY KEY,
	event_id   BIGINT NOT NULL REFERENCES events (id),
	status     TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rsvps_event ON rsvps (event_id, status, created_at);
`
