package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// reminderText describes the scheduled pieces, "Navy Tee with Blue Jeans".
func reminderText(s models.ScheduledOutfit) string {
	names := []string{}
	for _, g := range []*models.Garment{s.Top, s.Bottom} {
		if g != nil && g.Name != "" {
			names = append(names, g.Name)
		}
	}
	if len(names) == 0 {
		return "Your planned outfit is waiting for you."
	}
	return strings.Join(names, " with ") + " is planned for today."
}

// HandleScheduleRemindTask pushes today's planned outfits to their owners once.
func HandleScheduleRemindTask(ctx context.Context, t *asynq.Task, db *gorm.DB, notifier services.PushNotifier) error {
	return sendScheduleReminders(ctx, db, notifier, time.Now())
}

func sendScheduleReminders(ctx context.Context, db *gorm.DB, notifier services.PushNotifier, now time.Time) error {
	fmt.Printf("[Schedule Remind] Processing for %s\n", models.Date(now).Format(time.DateOnly))

	var due []models.ScheduledOutfit
	result := db.Scopes(models.ScheduledOn(now)).
		Joins("JOIN user_accounts ON user_accounts.id = scheduled_outfits.user_account_id").
		Preload("Top").Preload("Bottom").
		Where("scheduled_outfits.notify_on_day = ? AND scheduled_outfits.is_notified = ?", true, false).
		Where("user_accounts.receive_notifications = ? AND user_accounts.banned = ?", true, false).
		Order("scheduled_outfits.id").Find(&due)
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Schedule Remind] Error fetching schedules: %v", result.Error))
		return result.Error
	}
	fmt.Printf("[Schedule Remind] Found %d outfits to remind\n", len(due))

	for _, s := range due {
		err := notifier.Notify(ctx, s.UserAccountID, "Today's outfit", reminderText(s), map[string]string{
			"type":        "scheduled_outfit",
			"schedule_id": strconv.FormatUint(uint64(s.ID), 10),
		})
		if err != nil {
			fmt.Printf("[Schedule Remind] Failed to send to user %d: %v\n", s.UserAccountID, err)
			sentry.CaptureException(fmt.Errorf("[Schedule Remind] Failed to send to user %d: %v", s.UserAccountID, err))
			continue
		}
		db.Model(&models.ScheduledOutfit{}).Where("id = ?", s.ID).Update("is_notified", true)
	}
	return nil
}
