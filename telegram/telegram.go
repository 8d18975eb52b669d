package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"wardrobeapi/models"
	"wardrobeapi/stylist"
	"wardrobeapi/wardrobe"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

const helpText = "Link your Telegram username in the app profile, then:\n" +
	"`/outfit [Casual|Formal|Party|Sport]` today's pick\n" +
	"`/points` your green points"

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// Bot answers stylist commands for users who linked their Telegram username.
type Bot struct {
	DB          *gorm.DB
	Recommender *wardrobe.Recommender
}

func (b *Bot) linkedUser(username string) (models.UserAccount, error) {
	var user models.UserAccount
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return user, gorm.ErrRecordNotFound
	}
	err := b.DB.Where("LOWER(telegram_username) = LOWER(?) AND banned = ?", username, false).First(&user).Error
	return user, err
}

func moodArg(args string) string {
	arg := strings.TrimSpace(args)
	for _, mood := range stylist.Moods {
		if strings.EqualFold(mood, arg) {
			return mood
		}
	}
	return stylist.MoodCasual
}

func garmentLine(label string, g *models.Garment) string {
	if g == nil {
		return fmt.Sprintf("%s: nothing in your wardrobe yet", label)
	}
	return fmt.Sprintf("%s: %s (%s)", label, EscapeMessage(g.Name), stylist.NearestColorName(g.ColorHex))
}

// HandleCommand builds the markdown reply for one command sent by username.
func (b *Bot) HandleCommand(ctx context.Context, username, command, args string) string {
	switch command {
	case "start", "help":
		return helpText
	case "outfit", "points":
	default:
		return fmt.Sprintf("Unknown command /%s\n%s", EscapeMessage(command), helpText)
	}

	user, err := b.linkedUser(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "This Telegram account is not linked yet. Add your username in the app profile first."
	}
	if err != nil {
		sentry.CaptureException(err)
		return "Something went wrong, try again later."
	}

	if command == "points" {
		return fmt.Sprintf("You have *%d* Green Points.", user.GreenPoints)
	}

	rec, err := b.Recommender.Recommend(ctx, user, wardrobe.Options{Mood: moodArg(args)})
	if err != nil {
		sentry.CaptureException(err)
		return "Something went wrong, try again later."
	}
	lines := []string{
		fmt.Sprintf("*%s* look for %s", rec.Mood, EscapeMessage(rec.Weather.City)),
		garmentLine("Top", rec.Top),
		garmentLine("Bottom", rec.Bottom),
	}
	if rec.Weather.TempC != nil {
		lines = append(lines, fmt.Sprintf("%d°C, %s", *rec.Weather.TempC, rec.Weather.Condition))
	}
	for _, msg := range []*string{rec.GuiltMessages.Top, rec.GuiltMessages.Bottom} {
		if msg != nil {
			lines = append(lines, EscapeMessage(*msg))
		}
	}
	return strings.Join(lines, "\n")
}

func RunStylistBot(bot *Bot) {
	api, err := tgbotapi.NewBotAPI(os.Getenv("TG_TOKEN"))
	if err != nil {
		println("Error tg bot init")
		log.Panic(err)
	}
	api.Debug = os.Getenv("ENV") != "production"

	log.Printf("Authorized on account %s", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		username := ""
		if update.Message.From != nil {
			username = update.Message.From.UserName
		}
		log.Printf("[%s] %s", username, update.Message.Text)

		reply := bot.HandleCommand(context.Background(), username, update.Message.Command(), update.Message.CommandArguments())
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
		msg.ReplyToMessageID = update.Message.MessageID
		msg.ParseMode = "markdown"
		if _, err := api.Send(msg); err != nil {
			log.Println(err.Error())
		}
	}
}
