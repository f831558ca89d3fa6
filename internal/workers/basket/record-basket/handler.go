// internal/workers/basket/record-basket/handler.go
package recordbasket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"basket-optimizer/internal/common/errors"
	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/common/metrics"
	"basket-optimizer/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-basket"
)

type Store interface {
	Insert(ctx context.Context, rec models.BasketRecord) (models.BasketRecord, error)
}

type Handler struct {
	config       *Config
	store        Store
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	timer := metrics.StartJob(TaskType)

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		timer.Done(bpmnErr.Code)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
		timer.Done(bpmnErr.Code)
		return
	}

	h.completeJob(client, job, output)
	timer.Done("")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	rec, err := h.store.Insert(ctx, models.BasketRecord{
		UserID:          input.UserID,
		Mode:            input.Mode,
		Budget:          input.Budget,
		AggregateSpend:  input.AggregateSpend,
		AggregateHealth: input.AggregateHealth,
		ItemIDs:         input.SelectedIDs,
	})
	if err != nil {
		return nil, errors.NewHistoryWriteFailedError(err)
	}

	h.logger.Info("basket recorded", map[string]interface{}{
		"basketId": rec.ID,
		"userId":   rec.UserID,
		"items":    len(rec.ItemIDs),
	})

	return &Output{
		BasketID:   rec.ID,
		RecordedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func validateInput(input *Input) error {
	if input.UserID == "" {
		return errors.NewInvalidInputError("userId is required")
	}
	if input.Mode != models.ModeHealth && input.Mode != models.ModePrice {
		return errors.NewInvalidInputError(fmt.Sprintf("unknown basket mode %q", input.Mode))
	}
	if input.Budget < 0 || input.AggregateSpend < 0 {
		return errors.NewInvalidInputError("budget and spend must be non-negative")
	}
	if input.AggregateSpend > input.Budget {
		return errors.NewInvalidInputError(fmt.Sprintf("spend %d exceeds budget %d", input.AggregateSpend, input.Budget))
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
