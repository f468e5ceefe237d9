package domain

import (
	"context"
	"time"
)

// GradeJob содержит итоговый счёт матча для оценки прогнозов.
type GradeJob struct {
	ID          string      `json:"job_id,omitempty"`
	Result      MatchResult `json:"result"`
	RequestedAt time.Time   `json:"requested_at"`
}

// GradeQueue описывает очередь задач на оценку прогнозов.
type GradeQueue interface {
	Enqueue(ctx context.Context, job GradeJob) error
	Pop(ctx context.Context) (GradeJob, error)
}
