package main

import (
	"context"
	"log"
	"os"

	"wardrobeapi/dbhelper"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	entries := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: services.GetEnv("REMINDER_CRON", "0 7 * * *"),
			task: tasks.NewScheduleRemindTask(),
			desc: "Scheduled outfit reminders",
		},
	}

	for _, t := range entries {
		entryID, err := scheduler.Register(t.cron, t.task, asynq.Queue(tasks.QueueDefault))
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			tasks.QueueGenerate: 7,
			tasks.QueueDefault:  3,
		}},
	)
	cfg := services.LoadStylistConfig()
	storage, err := services.NewR2Service(context.Background(), cfg.BucketName)
	if err != nil {
		log.Fatal("[Queue] Failed to initialize storage provider: R2")
	}
	llmProcessor := &services.GoogleLLMProcessor{}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}

	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	notifier := services.FirebaseNotifier{App: app, DB: db}
	mux.HandleFunc(tasks.TypeGarmentProcess, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleGarmentProcessTask(ctx, t, db, llmProcessor, storage, cfg)
	})
	mux.HandleFunc(tasks.TypeTryOnGenerate, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleTryOnGenerationTask(ctx, t, db, llmProcessor, storage)
	})
	mux.HandleFunc(tasks.TypeScheduleRemind, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleScheduleRemindTask(ctx, t, db, notifier)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
