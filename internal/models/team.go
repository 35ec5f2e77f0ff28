package models

import "time"

// Team membership roles
const (
	TeamRoleLeader = "leader"
	TeamRoleMember = "member"
)

// Team represents a team entity
type Team struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   *string      `json:"description"`
	CreatedBy     int64        `json:"created_by"`
	CreatedByName string       `json:"created_by_name,omitempty"`
	MemberCount   int          `json:"member_count"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Members       []TeamMember `json:"members,omitempty"`
}

// TeamMember is a user seen through a team membership
type TeamMember struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	TeamRole string    `json:"team_role"`
	JoinedAt time.Time `json:"joined_at"`
}

// IsValidTeamRole reports whether role is a membership role
func IsValidTeamRole(role string) bool {
	return role == TeamRoleLeader || role == TeamRoleMember
}
