package queue

type TaskType string

const (
	// TaskTypeEnrichRequest asks a worker to run one request end to end.
	TaskTypeEnrichRequest TaskType = "enrich_request"
)

type Task struct {
	TaskType  TaskType
	RequestID int64
	TraceID   *string
	Attempt   int
}
