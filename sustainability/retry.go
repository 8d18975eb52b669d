package sustainability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// transaction runs fn in one database transaction and reruns it right away
// while the database reports a retryable conflict.
func (e *Engine) transaction(ctx context.Context, tag string, fn func(tx *gorm.DB) error) error {
	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = e.DB.WithContext(ctx).Transaction(fn)
		if err == nil || !isTransient(err) {
			return err
		}
		log.Printf("[%s] transient conflict on attempt %d: %v", tag, attempt, err)
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", strings.ToLower(tag))
		sentry.CaptureException(err)
	})
	return fmt.Errorf("%s gave up after %d attempts: %w", strings.ToLower(tag), attempts, err)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
