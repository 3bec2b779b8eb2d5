package promo

import (
	"context"
	"encoding/json"

	"clinic-adminplane/pkg/errutil"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeCampaignSend = "promo:campaign:send"

// NewCampaignTask wraps a campaign input as a queued task for background
// delivery.
func NewCampaignTask(in SendInput) (*asynq.Task, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCampaignSend, payload, asynq.MaxRetry(3)), nil
}

// Enqueuer hands campaigns to the task queue instead of running them on
// the request path.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) Enqueue(ctx context.Context, in SendInput) (string, error) {
	task, err := NewCampaignTask(in)
	if err != nil {
		return "", errutil.Internal("failed to build campaign task", errutil.WithErr(err))
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", errutil.Internal("failed to enqueue campaign", errutil.WithErr(err))
	}

	zap.L().Info("campaign enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return info.ID, nil
}

// TaskHandler executes queued campaigns.
type TaskHandler struct {
	svc *Service
}

func NewTaskHandler(svc *Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var in SendInput
	if err := json.Unmarshal(t.Payload(), &in); err != nil {
		// A payload that never decodes will never succeed on retry.
		zap.L().Error("malformed campaign payload", zap.Error(err))
		return nil
	}

	result, err := h.svc.SendCampaign(ctx, in)
	if err != nil {
		return err
	}

	zap.L().Info("queued campaign processed",
		zap.String("history_id", result.HistoryID),
		zap.Int("sent", result.SentCount),
	)
	return nil
}

// RegisterTasks mounts the promo task handlers on the worker mux.
func RegisterTasks(mux *asynq.ServeMux, h *TaskHandler) {
	mux.Handle(TypeCampaignSend, h)
}
