package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
)

// Groups keeps groups and their participants in process memory.
type Groups struct {
	lock         *sync.RWMutex
	groups       map[string]domain.Group
	participants map[string]domain.Participant
	// participant ids per group in join order
	members map[string][]string
}

func NewGroups() Groups {
	return Groups{
		lock:         &sync.RWMutex{},
		groups:       make(map[string]domain.Group),
		participants: make(map[string]domain.Participant),
		members:      make(map[string][]string),
	}
}

func (r Groups) Create(ctx context.Context, group domain.Group, owner domain.Participant) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.groups[group.Id]; ok {
		return errors.Errorf("group '%s' already exists", group.Id)
	}
	r.groups[group.Id] = group
	r.participants[owner.Id] = owner
	r.members[group.Id] = []string{owner.Id}
	return nil
}

func (r Groups) GetById(ctx context.Context, id string) (*domain.Group, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	group, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	group.InvitationsSent = slices.Clone(group.InvitationsSent)
	return &group, nil
}

func (r Groups) GetByInviteId(ctx context.Context, inviteId string) (*domain.Group, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, group := range r.groups {
		if group.InviteId == inviteId {
			return &group, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (r Groups) Participants(ctx context.Context, groupId string) ([]domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	ids, ok := r.members[groupId]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	result := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.participants[id])
	}
	return result, nil
}

func (r Groups) ParticipantById(ctx context.Context, id string) (*domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	participant, ok := r.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return &participant, nil
}

// ParticipantByEmail looks up a participant inside a group.
func (r Groups) ParticipantByEmail(ctx context.Context, groupId string, email string) (*domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, id := range r.members[groupId] {
		participant := r.participants[id]
		if participant.Email == email {
			return &participant, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

// LatestByEmail returns the participant whose code was sent most recently.
func (r Groups) LatestByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var latest *domain.Participant
	for _, participant := range r.participants {
		if participant.Email != email {
			continue
		}
		if latest == nil || sentAt(participant).After(sentAt(*latest)) {
			found := participant
			latest = &found
		}
	}
	if latest == nil {
		return nil, domain.ErrParticipantNotFound
	}
	return latest, nil
}

func (r Groups) ParticipantByEmailAndCode(ctx context.Context, email string, code string) (*domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, participant := range r.participants {
		if participant.Email == email && participant.VerificationCode != "" && participant.VerificationCode == code {
			return &participant, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

// InsertParticipant adds a participant to a group that is not drawn yet.
func (r Groups) InsertParticipant(ctx context.Context, participant domain.Participant) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	group, ok := r.groups[participant.GroupId]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if group.IsDrawn {
		return domain.ErrAlreadyDrawn
	}
	ids := r.members[participant.GroupId]
	for _, id := range ids {
		if r.participants[id].Email == participant.Email {
			return domain.ErrParticipantExists
		}
	}
	r.participants[participant.Id] = participant
	r.members[participant.GroupId] = append(ids, participant.Id)
	return nil
}

// UpdateParticipant applies update to the stored participant under the store lock.
// Nothing is stored when update returns an error. Assignment fields are owned by
// SaveDraw and ResetDraw and are kept as stored.
func (r Groups) UpdateParticipant(
	ctx context.Context,
	id string,
	update func(participant *domain.Participant) error,
) (*domain.Participant, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	updated := stored
	err := update(&updated)
	if err != nil {
		return nil, err
	}
	updated.Id = stored.Id
	updated.GroupId = stored.GroupId
	updated.RecipientId = stored.RecipientId
	updated.AssignmentStatus = stored.AssignmentStatus
	r.participants[id] = updated
	return &updated, nil
}

// RemoveParticipant deletes a member of a group that is not drawn yet.
func (r Groups) RemoveParticipant(ctx context.Context, groupId string, participantId string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	group, ok := r.groups[groupId]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if group.IsDrawn {
		return domain.ErrAlreadyDrawn
	}
	participant, ok := r.participants[participantId]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if participant.GroupId != groupId {
		return domain.ErrParticipantNotInGroup
	}
	if participant.Email == group.OwnerEmail {
		return domain.ErrRemoveOwner
	}
	delete(r.participants, participantId)
	r.members[groupId] = slices.DeleteFunc(slices.Clone(r.members[groupId]), func(id string) bool {
		return id == participantId
	})
	return nil
}

// UpdateGroup applies update to the stored group. The owner, invite and draw state are kept as stored.
func (r Groups) UpdateGroup(
	ctx context.Context,
	id string,
	update func(group *domain.Group) error,
) (*domain.Group, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	updated := stored
	updated.InvitationsSent = slices.Clone(stored.InvitationsSent)
	err := update(&updated)
	if err != nil {
		return nil, err
	}
	updated.Id = stored.Id
	updated.OwnerEmail = stored.OwnerEmail
	updated.InviteId = stored.InviteId
	updated.IsDrawn = stored.IsDrawn
	updated.CreatedAt = stored.CreatedAt
	r.groups[id] = updated
	return &updated, nil
}

// FindByEmail returns any participant with the email, across groups.
func (r Groups) FindByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, participant := range r.participants {
		if participant.Email == email {
			return &participant, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

// SaveDraw stores all assignments and marks the group drawn in one step.
func (r Groups) SaveDraw(ctx context.Context, groupId string, assignments map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	group, ok := r.groups[groupId]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if group.IsDrawn {
		return domain.ErrAlreadyDrawn
	}
	ids := r.members[groupId]
	if len(ids) != len(assignments) {
		return domain.ErrMembersChanged
	}
	for _, id := range ids {
		recipientId, ok := assignments[id]
		if !ok || !slices.Contains(ids, recipientId) {
			return domain.ErrMembersChanged
		}
	}

	for giverId, recipientId := range assignments {
		participant := r.participants[giverId]
		participant.Assign(recipientId)
		r.participants[giverId] = participant
	}
	group.IsDrawn = true
	r.groups[groupId] = group
	return nil
}

// ResetDraw clears every assignment of the group.
func (r Groups) ResetDraw(ctx context.Context, groupId string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	group, ok := r.groups[groupId]
	if !ok {
		return domain.ErrGroupNotFound
	}
	for _, id := range r.members[groupId] {
		participant := r.participants[id]
		participant.ResetAssignment()
		r.participants[id] = participant
	}
	group.IsDrawn = false
	r.groups[groupId] = group
	return nil
}

func sentAt(participant domain.Participant) time.Time {
	if participant.CodeSentAt == nil {
		return time.Time{}
	}
	return *participant.CodeSentAt
}
