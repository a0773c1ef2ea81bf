package db

var schema = `
CREATE TABLE IF NOT EXISTS movies (
	movie_id VARCHAR(64) PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS shows (
	show_id UUID PRIMARY KEY,
	movie_id VARCHAR(64) NOT NULL REFERENCES movies (movie_id),
	show_date_time TIMESTAMPTZ NOT NULL,
	show_price NUMERIC(10, 2) NOT NULL CHECK (show_price >= 0),
	occupied_seats JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS shows_movie_id_show_date_time_idx ON shows (movie_id, show_date_time);
CREATE INDEX IF NOT EXISTS shows_show_date_time_idx ON shows (show_date_time);

CREATE TABLE IF NOT EXISTS users (
	user_id VARCHAR(255) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	booking_id UUID PRIMARY KEY,
	user_id VARCHAR(255) NOT NULL,
	show_id UUID NOT NULL REFERENCES shows (show_id),
	amount NUMERIC(10, 2) NOT NULL,
	booked_seats TEXT[] NOT NULL,
	is_paid BOOLEAN NOT NULL DEFAULT false,
	payment_link TEXT NOT NULL DEFAULT '',
	payment_session_id VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_show_id_idx ON bookings (show_id);

CREATE TABLE IF NOT EXISTS booking_expirations (
	booking_id UUID PRIMARY KEY,
	due_at TIMESTAMPTZ NOT NULL,
	attempts INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS booking_expirations_due_at_idx ON booking_expirations (due_at);

CREATE TABLE IF NOT EXISTS booking_notifications (
	booking_id UUID PRIMARY KEY,
	sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`
