package controller

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/request"
)

type DeliveriesService interface {
	Authorize(authorization string) error
	Apply(ctx context.Context, notifications []domain.DeliveryNotification) (int, error)
}

type Webhook struct {
	service DeliveriesService
}

func NewWebhook(service DeliveriesService) Webhook {
	return Webhook{
		service: service,
	}
}

// Notifications receives email delivery reports. It is authorized by a bearer secret instead of CSRF.
func (c Webhook) Notifications(ctx *request.Context) error {
	err := c.service.Authorize(ctx.Request().Header.Get("Authorization"))
	if err != nil {
		return domainError(err)
	}

	req := domain.DeliveryWebhookRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	processed, err := c.service.Apply(ctx.Context(), req.Notifications)
	if err != nil {
		return errors.WithMessage(err, "apply delivery reports")
	}

	return writeJson(ctx, http.StatusOK, domain.DeliveryWebhookResponse{
		Success:           true,
		ProcessedMessages: processed,
	})
}
