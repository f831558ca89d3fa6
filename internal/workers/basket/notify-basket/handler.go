// internal/workers/basket/notify-basket/handler.go
package notifybasket

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"basket-optimizer/internal/common/errors"
	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/common/metrics"
	"basket-optimizer/internal/common/validation"
	"basket-optimizer/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-basket"
)

// Mailer sends plain-text email.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// Texter sends SMS.
type Texter interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	db           *sql.DB
	mailer       Mailer
	texter       Texter
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, mailer Mailer, texter Texter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		mailer:       mailer,
		texter:       texter,
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
	if input.UserID == "" {
		return nil, errors.NewInvalidInputError("userId is required")
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	contact, err := h.getContact(ctx, input.UserID)
	if stderrors.Is(err, sql.ErrNoRows) {
		h.logger.Warn("recipient not found", map[string]interface{}{"userId": input.UserID})
		return output, nil
	}
	if err != nil {
		return nil, errors.NewExternalServiceError("postgres", err)
	}

	data := templateData(input)
	subject := renderTemplate(subjectTemplate, data)
	body := renderTemplate(bodyTemplate, data) + itemLines(input.Items)

	if h.config.EmailEnabled && h.mailer != nil && validation.ValidateEmail(contact.Email) {
		if _, err := h.mailer.SendText(ctx, contact.Email, subject, body); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if h.config.SMSEnabled && h.texter != nil && validation.ValidatePhone(contact.Phone) {
		if _, err := h.texter.SendSMS(ctx, contact.Phone, renderTemplate(smsTemplate, data)); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		output.Channels = append(output.Channels, ChannelSMS)
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	}

	h.logger.Info("basket notification processed", map[string]interface{}{
		"userId":         input.UserID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, nil
}

const selectContact = `SELECT COALESCE(email, ''), COALESCE(phone, '') FROM users WHERE id = $1`

func (h *Handler) getContact(ctx context.Context, userID string) (models.UserContact, error) {
	contact := models.UserContact{UserID: userID}
	err := h.db.QueryRowContext(ctx, selectContact, userID).Scan(&contact.Email, &contact.Phone)
	return contact, err
}

const (
	subjectTemplate = "Your {{mode}} basket is ready"
	bodyTemplate    = "Your {{mode}} basket has {{itemCount}} items for {{spend}} yen (budget {{budget}}).{{basketRef}}"
	smsTemplate     = "Basket ready: {{itemCount}} items, {{spend}}/{{budget}} yen."
)

func templateData(input *Input) map[string]interface{} {
	data := map[string]interface{}{
		"mode":      string(input.Mode),
		"itemCount": len(input.SelectedIDs),
		"spend":     input.AggregateSpend,
		"budget":    input.Budget,
	}
	if input.BasketID != "" {
		data["basketRef"] = " Reference: " + input.BasketID
	}
	return data
}

func itemLines(items []models.OutputRecord) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, it := range items {
		fmt.Fprintf(&b, "\n- %s (%s) %d yen", it.Name, it.Genre, it.Price)
	}
	return b.String()
}

// renderTemplate fills {{key}} placeholders and drops the ones without data.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", fmt.Sprint(v))
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
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
