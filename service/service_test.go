package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/txix-open/isp-kit/test"
	"secret-santa-service/domain"
	"secret-santa-service/lottery"
	"secret-santa-service/repository"
	"secret-santa-service/service"
)

type env struct {
	repo          repository.Groups
	outbox        *service.Outbox
	notifications service.Notifications
	locks         service.KeyedMutex
	verification  service.Verification
	groups        service.Groups
	lottery       service.Lottery
	deliveries    service.Deliveries
	now           *time.Time
	lock          *sync.Mutex
}

func newEnv(t *testing.T) (*env, *require.Assertions) {
	t.Helper()
	test, require := test.New(t)

	now := time.Date(2024, time.December, 1, 12, 0, 0, 0, time.UTC)
	e := &env{
		repo:   repository.NewGroups(),
		outbox: service.NewOutbox(),
		locks:  service.NewKeyedMutex(),
		now:    &now,
		lock:   &sync.Mutex{},
	}
	clock := func() time.Time {
		e.lock.Lock()
		defer e.lock.Unlock()
		return *e.now
	}
	e.notifications = service.NewNotifications(e.outbox, test.Logger())
	e.verification = service.NewVerification(e.repo, e.notifications, service.DefaultCodeLifetime, service.DefaultResendCooldown).
		WithClock(clock)
	e.groups = service.NewGroups(e.repo, e.verification, e.notifications, e.locks, "http://localhost:3000/join")
	e.lottery = service.NewLottery(e.repo, lottery.NewEngine(), e.notifications, e.locks, test.Logger())
	e.deliveries = service.NewDeliveries(e.repo, "webhook-secret", test.Logger())
	return e, require
}

func (e *env) advance(d time.Duration) {
	e.lock.Lock()
	defer e.lock.Unlock()
	*e.now = e.now.Add(d)
}

// createGroup returns the group and the ids of its members, owner first.
func (e *env) createGroup(t *testing.T, members int) (*domain.Group, []string) {
	t.Helper()
	ctx := context.Background()
	group, err := e.groups.Create(ctx, domain.CreateGroupRequest{
		Name:       "Office party",
		Date:       "2024-12-24",
		Place:      "Kitchen",
		Budget:     "20 EUR",
		OwnerName:  "Olga",
		OwnerEmail: "Owner@Example.com",
	})
	require.NoError(t, err)

	for i := 1; i < members; i++ {
		err := e.groups.Join(ctx, domain.JoinGroupRequest{
			Name:     "Member",
			Email:    "member" + string(rune('a'+i)) + "@example.com",
			InviteId: group.InviteId,
		})
		require.NoError(t, err)
	}

	participants, err := e.repo.Participants(ctx, group.Id)
	require.NoError(t, err)
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.Id)
	}
	return group, ids
}

func (e *env) lastCode(t *testing.T, participantId string) string {
	t.Helper()
	participant, err := e.repo.ParticipantById(context.Background(), participantId)
	require.NoError(t, err)
	message, ok := e.outbox.Last(participantId, domain.NotificationVerificationCode)
	require.True(t, ok)
	require.Contains(t, message.Body, participant.VerificationCode)
	return participant.VerificationCode
}
