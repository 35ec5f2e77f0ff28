// Package policy decides whether an actor may perform an action on a resource.
// Handlers load the resource, precompute membership flags and ask CanPerform.
package policy

import "github.com/nikhil/teamtasks/internal/models"

// Actor is the authenticated caller. It is built once per request and never mutated.
type Actor struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// IsAdmin reports whether the actor has the admin account role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Kind names a resource type
type Kind string

const (
	KindTask         Kind = "task"
	KindProject      Kind = "project"
	KindTeam         Kind = "team"
	KindBoard        Kind = "board"
	KindComment      Kind = "comment"
	KindNotification Kind = "notification"
	KindMessage      Kind = "message"
	KindUser         Kind = "user"
	KindWorkload     Kind = "workload"
)

// Action names an operation
type Action string

const (
	ActionRead          Action = "read"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionMove          Action = "move"
	ActionManageTasks   Action = "manage_tasks"
	ActionReport        Action = "report"
	ActionManageMembers Action = "manage_members"
	ActionRemoveMember  Action = "remove_member"
	ActionIntegrations  Action = "manage_integrations"
	ActionReadTeam      Action = "read_team"
)

// Resource describes the target of an action.
// OwnerID is the project owner, board owner, comment author, notification owner,
// message recipient, team member being removed or user being viewed, depending on Kind.
type Resource struct {
	Kind       Kind
	OwnerID    int64
	AssigneeID *int64
	CreatorID  int64
	IsMember   bool
	IsLeader   bool
}

// CanPerform is the single authorization decision point
func CanPerform(actor Actor, action Action, res Resource) bool {
	admin := actor.IsAdmin()
	owner := res.OwnerID != 0 && res.OwnerID == actor.ID

	switch res.Kind {
	case KindTask:
		creator := res.CreatorID == actor.ID
		assignee := res.AssigneeID != nil && *res.AssigneeID == actor.ID
		switch action {
		case ActionRead, ActionUpdate, ActionMove:
			return admin || assignee || creator
		case ActionDelete:
			return admin || creator
		}

	case KindProject:
		switch action {
		case ActionRead:
			return admin || owner || res.IsMember
		case ActionUpdate, ActionDelete, ActionManageTasks, ActionReport:
			return admin || owner
		}

	case KindTeam:
		switch action {
		case ActionRead:
			return admin || res.IsMember
		case ActionUpdate, ActionManageMembers, ActionIntegrations:
			return admin || res.IsLeader
		case ActionDelete:
			return admin || res.CreatorID == actor.ID
		case ActionRemoveMember:
			return admin || res.IsLeader || owner
		}

	case KindBoard, KindComment, KindNotification:
		return admin || owner

	case KindMessage:
		return owner

	case KindUser:
		if action == ActionReadTeam || action == ActionReport {
			return admin || owner
		}

	case KindWorkload:
		return admin
	}
	return false
}
