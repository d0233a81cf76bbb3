// Package services orchestrates the store, the engine, caching and events.
package services

import (
	"context"
	"time"

	"healthdash/internal/amqp"
	"healthdash/internal/engine"
)

type (
	// EntryPublisher announces logged entries to the worker.
	EntryPublisher interface {
		PublishEntryLogged(ctx context.Context, msg *amqp.EntryLoggedMessage) error
	}

	// SummaryExporter writes a day's summary to an external destination and
	// returns a reference to where it landed.
	SummaryExporter interface {
		ExportDay(ctx context.Context, userID string, day time.Time, s engine.DailySummary) (ref string, err error)
	}

	// DayInvalidator drops cached results that include a day.
	DayInvalidator interface {
		InvalidateDay(ctx context.Context, userID string, day time.Time, loc *time.Location)
	}

	// UserInvalidator drops every cached result of a user.
	UserInvalidator interface {
		InvalidateUser(ctx context.Context, userID string)
	}
)
