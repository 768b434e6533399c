package queue

import (
	"github.com/hibiken/asynq"
)

// HandlersRegistry collects the worker's task handlers behind one mux.
// The worker binary registers a handler per task type (notification
// delivery, appointment reminders) and hands the mux to the asynq server.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

// Register binds a handler to a task type; each type gets exactly one
// handler, asynq panics on a duplicate registration.
func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
