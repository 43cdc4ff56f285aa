package service_test

import (
	"context"
	"testing"

	"secret-santa-service/domain"
)

func TestDeliveriesAuthorize(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)

	require.NoError(e.deliveries.Authorize("Bearer webhook-secret"))
	require.ErrorIs(e.deliveries.Authorize("Bearer wrong"), domain.ErrUnauthorizedWebhook)
	require.ErrorIs(e.deliveries.Authorize("webhook-secret"), domain.ErrUnauthorizedWebhook)
	require.ErrorIs(e.deliveries.Authorize(""), domain.ErrUnauthorizedWebhook)
}

func TestDeliveriesApply(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)
	ctx := context.Background()

	_, ids := e.createGroup(t, 2)

	processed, err := e.deliveries.Apply(ctx, []domain.DeliveryNotification{
		{ParticipantId: ids[0], Status: domain.EmailDelivered},
		{ParticipantId: ids[1], Status: "exploded"},
		{ParticipantId: "missing", Status: domain.EmailBounced},
	})
	require.NoError(err)
	require.Equal(1, processed)

	participant, err := e.repo.ParticipantById(ctx, ids[0])
	require.NoError(err)
	require.Equal(domain.EmailDelivered, participant.EmailStatus)
}
