package domain

type CsrfTokenResponse struct {
	Token string `json:"token"`
}

type CreateGroupRequest struct {
	Name       string `json:"name" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Place      string `json:"place" validate:"required"`
	Budget     string `json:"budget" validate:"required"`
	OwnerName  string `json:"ownerName" validate:"required"`
	OwnerEmail string `json:"ownerEmail" validate:"required,email"`
}

type CreateGroupResponse struct {
	Success  bool   `json:"success"`
	GroupId  string `json:"groupId"`
	InviteId string `json:"inviteId"`
	Email    string `json:"email"`
}

type JoinGroupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	InviteId string `json:"inviteId" validate:"required"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type VerifyResponse struct {
	Success       bool   `json:"success"`
	ParticipantId string `json:"participantId"`
	GroupId       string `json:"groupId"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type GroupActionRequest struct {
	GroupId string `json:"groupId" validate:"required"`
}

type RunLotteryResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ParticipantsCount int    `json:"participantsCount"`
}

type ResendAssignmentRequest struct {
	GroupId       string `json:"groupId" validate:"required"`
	ParticipantId string `json:"participantId" validate:"required"`
}

type DeliveryNotification struct {
	ParticipantId string      `json:"participantId" validate:"required"`
	Status        EmailStatus `json:"status" validate:"required"`
}

type DeliveryWebhookRequest struct {
	Notifications []DeliveryNotification `json:"notifications" validate:"required,dive"`
}

type DeliveryWebhookResponse struct {
	Success           bool `json:"success"`
	ProcessedMessages int  `json:"processedMessages"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type UpdateGroupRequest struct {
	GroupId string `json:"groupId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Date    string `json:"date" validate:"required"`
	Place   string `json:"place" validate:"required"`
	Budget  string `json:"budget" validate:"required"`
}

type RemoveParticipantRequest struct {
	GroupId       string `json:"groupId" validate:"required"`
	ParticipantId string `json:"participantId" validate:"required"`
}

type SendInvitationRequest struct {
	GroupId        string `json:"groupId" validate:"required"`
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
}

type CheckEmailResponse struct {
	Exists  bool `json:"exists"`
	HasName bool `json:"hasName"`
}
