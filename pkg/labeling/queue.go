// Package labeling enqueues media answers for the human labeling pipeline.
// Photo and video answers cannot be evaluated by routing rules, so they are
// pushed to a Redis-backed work queue that the labeling tooling consumes.
package labeling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/canvass/canvass/pkg/models"
)

const defaultQueue = "canvass:labeling"

// Job is the unit of work handed to the labeling pipeline.
type Job struct {
	SubmissionID string    `json:"submission_id"`
	AnswerID     string    `json:"answer_id"`
	QuestionID   string    `json:"question_id"`
	MediaURL     string    `json:"media_url"`
	MediaType    string    `json:"media_type"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// Queue pushes labeling jobs onto a Redis list.
type Queue struct {
	client redis.UniversalClient
	queue  string
	logger *slog.Logger
}

// NewQueue connects to Redis at addr and returns a queue handle. An empty
// queue name falls back to the default list.
func NewQueue(ctx context.Context, logger *slog.Logger, addr, password, queue string) (*Queue, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	if queue == "" {
		queue = defaultQueue
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "queue", queue)

	return &Queue{
		client: client,
		queue:  queue,
		logger: logger.With("module", "labeling_queue", "queue", queue),
	}, nil
}

// Enqueue pushes a labeling job for every media URL carried by the answer.
// Answers without media are a no-op.
func (q *Queue) Enqueue(ctx context.Context, answer *models.Answer) error {
	if answer == nil || !answer.HasMedia() {
		return nil
	}

	jobs := make([]Job, 0, 2)

	if answer.PhotoURL != "" {
		jobs = append(jobs, q.job(answer, answer.PhotoURL, "photo"))
	}

	if answer.VideoURL != "" {
		jobs = append(jobs, q.job(answer, answer.VideoURL, "video"))
	}

	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal labeling job for answer %s: %w", answer.ID, err)
		}

		err = q.client.LPush(ctx, q.queue, payload).Err()
		if err != nil {
			return fmt.Errorf("failed to enqueue labeling job for answer %s: %w", answer.ID, err)
		}

		q.logger.InfoContext(ctx, "Enqueued labeling job",
			"answer_id", answer.ID,
			"media_type", job.MediaType,
		)
	}

	return nil
}

func (q *Queue) job(answer *models.Answer, url, mediaType string) Job {
	return Job{
		SubmissionID: answer.SubmissionID,
		AnswerID:     answer.ID,
		QuestionID:   answer.QuestionID,
		MediaURL:     url,
		MediaType:    mediaType,
		EnqueuedAt:   time.Now().UTC(),
	}
}

// Len reports the number of jobs waiting in the queue.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	length, err := q.client.LLen(ctx, q.queue).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}

	return length, nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
