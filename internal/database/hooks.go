package database

import (
	"time"

	"example.com/backstage/bookings/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks wraps every gorm operation with timing callbacks that
// feed the process metrics collector.
func RegisterMetricsHooks(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", markStart); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", recordQuery(metrics.DBQueryTypeInsert)); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", markStart); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", recordQuery(metrics.DBQueryTypeSelect)); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", markStart); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", recordQuery(metrics.DBQueryTypeUpdate)); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", markStart); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", recordQuery(metrics.DBQueryTypeDelete)); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", markStart); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", recordQuery(metrics.DBQueryTypeRaw))
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func recordQuery(queryType string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		var elapsed time.Duration
		if start, ok := db.InstanceGet(startTimeKey); ok {
			elapsed = time.Since(start.(time.Time))
		}
		success := db.Error == nil || db.Error == gorm.ErrRecordNotFound
		metrics.Default().RecordDatabaseQuery(queryType, success, elapsed)
	}
}
