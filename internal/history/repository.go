package history

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles all database operations for boost events
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordBoost stores one applied (or attempted) priority adjustment.
func (r *Repository) RecordBoost(pid, from, to int, applyErr error) {
	r.create(&BoostEvent{
		Timestamp:    time.Now(),
		PID:          pid,
		Action:       ActionBoost,
		FromPriority: from,
		ToPriority:   to,
		Failed:       applyErr != nil,
	})
}

// RecordRevert stores one restoration of a previously boosted process.
func (r *Repository) RecordRevert(pid, restored int, applyErr error) {
	r.create(&BoostEvent{
		Timestamp:    time.Now(),
		PID:          pid,
		Action:       ActionRevert,
		ToPriority:   restored,
		FromPriority: restored,
		Failed:       applyErr != nil,
	})
}

func (r *Repository) create(event *BoostEvent) {
	// History is best effort; a failed insert must never affect the
	// transition that produced it.
	if result := r.db.Create(event); result.Error != nil {
		_ = r.CreateErrorLog(&ErrorLog{
			Timestamp: time.Now(),
			ErrorMsg:  errors.Wrap(result.Error, "failed to insert boost event").Error(),
		})
	}
}

// GetEventsSince retrieves all boost events since a given time
func (r *Repository) GetEventsSince(since time.Time) ([]*BoostEvent, error) {
	var events []*BoostEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query boost events")
	}
	return events, nil
}

// GetRecent retrieves the most recent boost events, newest first.
func (r *Repository) GetRecent(limit int) ([]*BoostEvent, error) {
	var events []*BoostEvent
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent boost events")
	}
	return events, nil
}

// GetLatest retrieves the most recent boost event
func (r *Repository) GetLatest() (*BoostEvent, error) {
	var event BoostEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// DeleteOldEvents deletes events older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&BoostEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// Clear removes all boost events from the database
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM boost_events")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear boost events")
	}
	return nil
}
