package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/sudhanshu-m21/task-tracker-api/internal/dto"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
)

func TestRosterIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	memberToken, member := env.signUp(t, "member@example.com", "supersecret")

	w := env.get(t, "/api/users", memberToken)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Role member is not authorized to access this route", errorMessage(t, w))

	for _, probe := range []func() int{
		func() int { return env.postJSON(t, "/api/users", memberToken, gin.H{}).Code },
		func() int {
			return env.get(t, fmt.Sprintf("/api/users/%d", member.ID), memberToken).Code
		},
		func() int {
			return env.delete(t, fmt.Sprintf("/api/users/%d", member.ID), memberToken).Code
		},
	} {
		require.Equal(t, http.StatusForbidden, probe())
	}
}

func TestAdminRosterCRUD(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.signUpAdmin(t, "admin@example.com", "supersecret")

	// Create.
	w := env.postJSON(t, "/api/users", adminToken, gin.H{
		"email":    "hire@example.com",
		"password": "supersecret",
		"role":     "member",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "hire@example.com", created.Email)
	require.Equal(t, models.RoleMember, created.Role)

	// List includes both accounts.
	w = env.get(t, "/api/users", adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var roster []dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roster))
	require.Len(t, roster, 2)

	// Get.
	w = env.get(t, fmt.Sprintf("/api/users/%d", created.ID), adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	// Promote.
	w = env.putJSON(t, fmt.Sprintf("/api/users/%d", created.ID), adminToken, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	var promoted dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &promoted))
	require.Equal(t, models.RoleAdmin, promoted.Role)

	// Delete.
	w = env.delete(t, fmt.Sprintf("/api/users/%d", created.ID), adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success": true}`, w.Body.String())

	w = env.get(t, fmt.Sprintf("/api/users/%d", created.ID), adminToken)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", errorMessage(t, w))
}

func TestAdminCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.signUpAdmin(t, "admin@example.com", "supersecret")

	w := env.postJSON(t, "/api/users", adminToken, gin.H{
		"email": "new@example.com", "password": "supersecret", "role": "owner",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid role", errorMessage(t, w))

	w = env.postJSON(t, "/api/users", adminToken, gin.H{
		"email": "new@example.com", "password": "tiny",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.postJSON(t, "/api/users", adminToken, gin.H{
		"email": "admin@example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestGetMe(t *testing.T) {
	env := newTestEnv(t)
	token, user := env.signUp(t, "me@example.com", "supersecret")

	w := env.get(t, "/api/users/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var me dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, "me@example.com", me.Email)
}

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "old@example.com", "supersecret")

	w := env.putJSON(t, "/api/users/me", token, gin.H{"email": "Renamed@Example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	var me dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "renamed@example.com", me.Email)
}

func TestUpdateMePasswordChange(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "rotate@example.com", "supersecret")

	t.Run("wrong current password", func(t *testing.T) {
		w := env.putJSON(t, "/api/users/me", token, gin.H{
			"currentPassword": "wrongpassword",
			"newPassword":     "freshsecret",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "Current password is incorrect", errorMessage(t, w))
	})

	t.Run("new password too short", func(t *testing.T) {
		w := env.putJSON(t, "/api/users/me", token, gin.H{
			"currentPassword": "supersecret",
			"newPassword":     "tiny",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("successful rotation", func(t *testing.T) {
		w := env.putJSON(t, "/api/users/me", token, gin.H{
			"currentPassword": "supersecret",
			"newPassword":     "freshsecret",
		})
		require.Equal(t, http.StatusOK, w.Code)

		// Old password stops working, the new one logs in.
		login := env.postJSON(t, "/api/auth/login", "", gin.H{
			"email": "rotate@example.com", "password": "supersecret",
		})
		require.Equal(t, http.StatusUnauthorized, login.Code)

		login = env.postJSON(t, "/api/auth/login", "", gin.H{
			"email": "rotate@example.com", "password": "freshsecret",
		})
		require.Equal(t, http.StatusOK, login.Code)
	})
}
