package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer(nil)
	writer := Actor{ID: "w", Roles: []string{"writer"}}
	admin := Actor{ID: "a", Roles: []string{"GDS_Admin"}}

	require.True(t, a.HasCapability(writer, CapEditDrafts))
	require.False(t, a.HasCapability(writer, CapPublish))
	require.False(t, a.HasCapability(writer, CapRestore))
	require.True(t, a.HasCapability(admin, CapRestore))
	require.False(t, a.HasCapability(Actor{}, CapEditDrafts))
	require.True(t, a.HasCapability(System, CapPublish))
	require.False(t, a.HasCapability(System, CapRestore))
}

func TestActorFromClaims(t *testing.T) {
	claims := map[string]interface{}{
		"sub":          "user-1",
		"email":        "jo@example.gov",
		"roles":        []interface{}{"editor"},
		"realm_access": map[string]interface{}{"roles": []interface{}{"managing_editor", 7}},
	}
	a := ActorFromClaims(claims)
	require.Equal(t, "user-1", a.ID)
	require.Equal(t, "jo@example.gov", a.Email)
	require.Equal(t, []string{"editor", "managing_editor"}, a.Roles)

	require.Equal(t, []string{"writer", "editor"}, ActorFromClaims(map[string]interface{}{"roles": "writer,editor"}).Roles)
}
