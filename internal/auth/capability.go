package auth

import "strings"

// Capability is a named permission checked by the workflow before acting.
type Capability string

const (
	CapEditDrafts       Capability = "edit_drafts"
	CapPublish          Capability = "publish_edition"
	CapOverrideSchedule Capability = "override_schedule"
	CapUnpublish        Capability = "unpublish_edition"
	CapDelete           Capability = "delete_edition"
	CapRestore          Capability = "restore_edition"
	CapManageReminders  Capability = "manage_reminders"
	CapRunTasks         Capability = "run_tasks"
)

// Actor is whoever triggered an action: a signed-in user or the scheduler.
type Actor struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// System is the actor used by periodic tasks.
var System = Actor{ID: "system:scheduler", Roles: []string{RoleSystem}}

const (
	RoleWriter         = "writer"
	RoleEditor         = "editor"
	RoleManagingEditor = "managing_editor"
	RoleAdmin          = "gds_admin"
	RoleSystem         = "system"
)

// DefaultRoles maps each role to the capabilities it grants. Roles are
// cumulative: an editor can do everything a writer can.
var DefaultRoles = map[string][]Capability{
	RoleWriter:         {CapEditDrafts, CapDelete, CapManageReminders},
	RoleEditor:         {CapEditDrafts, CapDelete, CapManageReminders, CapPublish},
	RoleManagingEditor: {CapEditDrafts, CapDelete, CapManageReminders, CapPublish, CapUnpublish, CapOverrideSchedule},
	RoleAdmin:          {CapEditDrafts, CapDelete, CapManageReminders, CapPublish, CapUnpublish, CapOverrideSchedule, CapRestore, CapRunTasks},
	RoleSystem:         {CapPublish, CapRunTasks},
}

// RoleAuthorizer answers capability checks from a role table.
type RoleAuthorizer struct {
	roles map[string]map[Capability]bool
}

func NewRoleAuthorizer(table map[string][]Capability) *RoleAuthorizer {
	if table == nil {
		table = DefaultRoles
	}
	a := &RoleAuthorizer{roles: make(map[string]map[Capability]bool, len(table))}
	for role, caps := range table {
		set := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			set[c] = true
		}
		a.roles[strings.ToLower(role)] = set
	}
	return a
}

func (a *RoleAuthorizer) HasCapability(actor Actor, c Capability) bool {
	for _, r := range actor.Roles {
		if a.roles[strings.ToLower(r)][c] {
			return true
		}
	}
	return false
}

// ActorFromClaims builds an Actor from verified token claims. Roles are read
// from a top level "roles" claim or from Keycloak's realm_access.roles.
func ActorFromClaims(claims map[string]interface{}) Actor {
	a := Actor{}
	a.ID, _ = claims["sub"].(string)
	a.Email, _ = claims["email"].(string)
	a.Name, _ = claims["name"].(string)
	a.Roles = stringList(claims["roles"])
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		a.Roles = append(a.Roles, stringList(ra["roles"])...)
	}
	return a
}

func stringList(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vv == "" {
			return nil
		}
		return strings.Split(vv, ",")
	}
	return nil
}
