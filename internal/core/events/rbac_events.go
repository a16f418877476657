package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated             = "user.created"
	EventTypeUserRolesReplaced       = "user.roles_replaced"
	EventTypeRolePermissionsReplaced = "role.permissions_replaced"
)

type UserCreatedEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func NewUserCreatedEvent(userID int64, username string) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
		},
		UserID:   userID,
		Username: username,
	}
}

type UserRolesReplacedEvent struct {
	BaseEvent
	UserID  int64   `json:"user_id"`
	RoleIDs []int64 `json:"role_ids"`
	ActorID int64   `json:"actor_id,omitempty"`
}

func NewUserRolesReplacedEvent(userID int64, roleIDs []int64, actorID int64) *UserRolesReplacedEvent {
	return &UserRolesReplacedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRolesReplaced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"role_ids": roleIDs,
				"actor_id": actorID,
			},
		},
		UserID:  userID,
		RoleIDs: roleIDs,
		ActorID: actorID,
	}
}

type RolePermissionsReplacedEvent struct {
	BaseEvent
	RoleID        int64   `json:"role_id"`
	PermissionIDs []int64 `json:"permission_ids"`
	ActorID       int64   `json:"actor_id,omitempty"`
}

func NewRolePermissionsReplacedEvent(roleID int64, permissionIDs []int64, actorID int64) *RolePermissionsReplacedEvent {
	return &RolePermissionsReplacedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRolePermissionsReplaced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_id":        roleID,
				"permission_ids": permissionIDs,
				"actor_id":       actorID,
			},
		},
		RoleID:        roleID,
		PermissionIDs: permissionIDs,
		ActorID:       actorID,
	}
}
