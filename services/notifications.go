package services

import (
	"context"
	"fmt"
	"log"

	"wardrobeapi/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

const androidChannelID = "wardrobe-reminders"

type PushNotifier interface {
	Notify(ctx context.Context, userID uint, title string, message string, customData map[string]string) error
}

// FirebaseNotifier pushes to every active device token of a user through FCM.
type FirebaseNotifier struct {
	App *firebase.App
	DB  *gorm.DB
}

func stringMapToInterfaceMap(stringMap map[string]string) map[string]interface{} {
	interfaceMap := make(map[string]interface{})
	for key, value := range stringMap {
		interfaceMap[key] = value
	}
	return interfaceMap
}

func buildPushMessage(token models.UserPushToken, title, body string, customData map[string]string) *messaging.Message {
	var iosCustomData map[string]interface{}
	if customData != nil {
		iosCustomData = stringMapToInterfaceMap(customData)
	}
	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		APNS: &messaging.APNSConfig{
			FCMOptions: &messaging.APNSFCMOptions{
				AnalyticsLabel: "wardrobe",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
				CustomData: iosCustomData,
			},
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Priority:  messaging.PriorityHigh,
				ChannelID: androidChannelID,
			},
			Data: customData,
		},
		Token: token.Token,
	}
}

func (n FirebaseNotifier) Notify(ctx context.Context, userID uint, title string, message string, customData map[string]string) error {
	var tokens []models.UserPushToken
	if err := n.DB.WithContext(ctx).Where("user_account_id = ? AND active = ?", userID, true).Find(&tokens).Error; err != nil {
		return fmt.Errorf("loading push tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Println("[Push] No active tokens for user", userID)
		return nil
	}

	client, err := n.App.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("initializing messaging client: %w", err)
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, buildPushMessage(token, title, message, customData))
	}

	br, err := client.SendEach(ctx, messages)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Push] sending to user %d: %w", userID, err))
		return err
	}
	log.Println("[Push] Sent to user", userID, "success:", br.SuccessCount, "failures:", br.FailureCount)

	for i, resp := range br.Responses {
		if resp == nil || resp.Success {
			continue
		}
		log.Println("[Push] Failed token", tokens[i].ID, resp.Error)
		if messaging.IsUnregistered(resp.Error) {
			n.DB.Model(&models.UserPushToken{}).Where("id = ?", tokens[i].ID).Update("active", false)
		}
	}
	return nil
}
