// internal/workers/basket/optimize-basket/handler.go
package optimizebasket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"basket-optimizer/internal/common/errors"
	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/common/metrics"
	"basket-optimizer/internal/common/observability"
	"basket-optimizer/internal/common/validation"
	"basket-optimizer/internal/history"
	"basket-optimizer/internal/models"
	"basket-optimizer/internal/optimizer"
	"basket-optimizer/internal/preferences"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TaskType = "optimize-basket"
)

var tracer = observability.Tracer("basket-optimizer/" + TaskType)

type CatalogSource interface {
	Load(ctx context.Context) ([]models.CatalogItem, error)
}

type PreferenceSource interface {
	Get(ctx context.Context, userID string) (models.Preference, error)
}

type HistorySource interface {
	Latest(ctx context.Context, userID string) (*models.BasketRecord, error)
}

type Dependencies struct {
	Engine        *optimizer.Engine
	Catalog       CatalogSource
	Preferences   PreferenceSource
	History       HistorySource
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

type Handler struct {
	config       *Config
	engine       *optimizer.Engine
	catalog      CatalogSource
	preferences  PreferenceSource
	history      HistorySource
	validator    *validation.Validator
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, deps Dependencies) *Handler {
	log := deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       deps.Engine,
		catalog:      deps.Catalog,
		preferences:  deps.Preferences,
		history:      deps.History,
		validator:    deps.Validator,
		obs:          deps.Observability,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job.Variables)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
		elapsed := timer.Done(bpmnErr.Code)
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, elapsed, "failed")
		return
	}

	h.completeJob(client, job, output)
	elapsed := timer.Done("")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, "completed")
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	if result := h.validator.Validate(TaskType, raw); !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (_ *Output, err error) {
	ctx, span := tracer.Start(ctx, TaskType, trace.WithAttributes(
		attribute.String("user.id", input.UserID),
		attribute.Bool("basket.health_mode", input.IsHealthImportance),
	))
	defer func() { observability.EndSpan(span, err) }()

	budget := h.config.DefaultBudget
	if input.Budget != nil {
		budget = *input.Budget
	}
	if budget < 0 {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("budget must be non-negative, got %d", budget))
	}

	catalog, err := h.loadCatalog(ctx, input)
	if err != nil {
		return nil, err
	}

	prefs, err := h.loadPreferences(ctx, input)
	if err != nil {
		return nil, err
	}

	previous, err := h.loadPrevious(ctx, input)
	if err != nil {
		return nil, err
	}

	mode := string(models.ModePrice)
	if input.IsHealthImportance {
		mode = string(models.ModeHealth)
	}

	req := optimizer.Request{
		Catalog:     catalog,
		Preferences: prefs,
		Budget:      budget,
		HealthMode:  input.IsHealthImportance,
		Categories:  input.Genres,
	}
	if previous != nil {
		req.PreviousSelection = previous.ItemIDs
	}

	start := time.Now()
	result, err := h.engine.Optimize(ctx, req)
	if err != nil {
		metrics.ObserveSolve(mode, solveOutcome(err), time.Since(start), 0)
		return nil, err
	}

	sol := result.Solution
	span.SetAttributes(
		attribute.Int64("basket.budget", budget),
		attribute.Int64("basket.spend", sol.AggregateSpend),
		attribute.Int("basket.items", len(sol.SelectedIDs)),
		attribute.Int64("solver.nodes", sol.Nodes),
	)
	metrics.ObserveSolve(string(sol.Mode), "optimal", sol.Elapsed, sol.Nodes)
	reasons := make([]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		reasons[i] = d.Reason
	}
	metrics.CountDropped(reasons)
	h.obs.RecordBasket(ctx, string(sol.Mode), sol.AggregateSpend, len(sol.SelectedIDs))

	h.logger.Info("basket optimized", map[string]interface{}{
		"userId":      input.UserID,
		"mode":        sol.Mode,
		"budget":      budget,
		"spend":       sol.AggregateSpend,
		"selected":    len(sol.SelectedIDs),
		"skipped":     len(result.Diagnostics),
		"nodes":       sol.Nodes,
		"elapsedMs":   sol.Elapsed.Milliseconds(),
		"fellBack":    result.FellBackToPrice,
		"avoidRepeat": previous != nil,
	})

	output := &Output{
		Mode:            result.Summary.Mode,
		Budget:          budget,
		AggregateHealth: result.Summary.AggregateHealth,
		AggregateSpend:  result.Summary.AggregateSpend,
		SelectedIDs:     result.Summary.SelectedIDs,
		Skipped:         len(result.Diagnostics),
		FellBackToPrice: result.FellBackToPrice,
	}
	if previous != nil {
		output.AvoidedBasketID = previous.ID
	}
	if input.ResultShape == ShapeItems || input.ResultShape == ShapeBoth {
		output.Items = result.Items
	}
	return output, nil
}

func (h *Handler) loadCatalog(ctx context.Context, input *Input) ([]models.CatalogItem, error) {
	if len(input.Catalog) > 0 {
		return input.Catalog, nil
	}
	if h.catalog == nil {
		return nil, errors.NewInvalidInputError("no catalog supplied and no catalog source configured")
	}
	items, err := h.catalog.Load(ctx)
	if err != nil {
		return nil, errors.NewCatalogLoadFailedError(err)
	}
	return items, nil
}

// loadPreferences prefers inline preferences over the stored profile.
// Price mode ignores preferences entirely.
func (h *Handler) loadPreferences(ctx context.Context, input *Input) (models.Preference, error) {
	if !input.IsHealthImportance || input.Preferences != nil {
		return input.Preferences, nil
	}
	if input.UserID == "" || h.preferences == nil {
		return models.Preference{}, nil
	}
	prefs, err := h.preferences.Get(ctx, input.UserID)
	if stderrors.Is(err, preferences.ErrUserNotFound) {
		return nil, errors.NewResourceNotFoundError("users", fmt.Sprintf("user %s", input.UserID))
	}
	if err != nil {
		return nil, errors.NewPreferencesLookupFailedError(input.UserID, err)
	}
	return prefs, nil
}

func (h *Handler) loadPrevious(ctx context.Context, input *Input) (*models.BasketRecord, error) {
	if !input.AvoidRepeats || input.UserID == "" || h.history == nil {
		return nil, nil
	}
	rec, err := h.history.Latest(ctx, input.UserID)
	if stderrors.Is(err, history.ErrNoHistory) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewHistoryLookupFailedError(input.UserID, err)
	}
	return rec, nil
}

func solveOutcome(err error) string {
	switch {
	case stderrors.Is(err, optimizer.ErrSolverTimeout):
		return "timeout"
	case stderrors.Is(err, optimizer.ErrNoEligibleItems):
		return "no_items"
	case stderrors.Is(err, optimizer.ErrInfeasible),
		stderrors.Is(err, optimizer.ErrBudgetTooSmall),
		stderrors.Is(err, optimizer.ErrCategoryUnsatisfiable):
		return "infeasible"
	default:
		return "error"
	}
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

// Execute runs the optimization without a job, for tests and the CLI.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
