package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeGarmentProcess = "garment:process"
	TypeTryOnGenerate  = "tryon:generate"
	TypeScheduleRemind = "schedule:remind"

	QueueGenerate = "generate"
	QueueDefault  = "default"

	maxProcessRetries = 3
)

// Enqueuer is the part of *asynq.Client the API needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type GarmentProcessPayload struct {
	GarmentID uint `json:"garment_id"`
}

type TryOnGenerationPayload struct {
	TryOnID uint `json:"try_on_id"`
}

func NewGarmentProcessTask(garmentID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(GarmentProcessPayload{GarmentID: garmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGarmentProcess, payload), nil
}

func NewTryOnGenerationTask(tryOnID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(TryOnGenerationPayload{TryOnID: tryOnID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTryOnGenerate, payload), nil
}

func NewScheduleRemindTask() *asynq.Task {
	return asynq.NewTask(TypeScheduleRemind, nil)
}

// EnqueueGenerate puts a photo job on the generate queue with the usual retry budget.
func EnqueueGenerate(client Enqueuer, task *asynq.Task) (*asynq.TaskInfo, error) {
	info, err := client.Enqueue(task, asynq.MaxRetry(maxProcessRetries), asynq.Queue(QueueGenerate))
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	fmt.Printf("[Queue] %s enqueued, Task ID: %s\n", task.Type(), info.ID)
	return info, nil
}
