package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/handlers/testutil"
)

type profilePayload struct {
	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Bio      string `json:"bio"`
		Location string `json:"location"`
		Website  string `json:"website"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
}

func decodeProfile(t *testing.T, env *testutil.Env, method string, body any) profilePayload {
	t.Helper()

	w := env.Request(method, "/api/profile", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload profilePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &payload)
	return payload
}

func TestProfileRequiresSession(t *testing.T) {
	env := testutil.NewEnv(t)

	require.Equal(t, http.StatusUnauthorized, env.Request(http.MethodGet, "/api/profile", nil).Code)
	require.Equal(t, http.StatusUnauthorized, env.Request(http.MethodPut, "/api/profile", map[string]string{"name": "X"}).Code)
}

func TestProfileGetAndUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	account := env.CreateAccount("ivan@example.com", "Password1", true, false)
	env.Login("ivan@example.com", "Password1")

	profile := decodeProfile(t, env, http.MethodGet, nil)
	require.Equal(t, account.ID, profile.User.ID)
	require.Equal(t, "Test Account", profile.User.Name)

	profile = decodeProfile(t, env, http.MethodPut, map[string]string{
		"name":     "  Ivan Petrov ",
		"bio":      "Builds things",
		"website":  "https://ivan.example.com",
		"location": "Lisbon",
	})
	require.Equal(t, "Ivan Petrov", profile.User.Name)
	require.Equal(t, "Builds things", profile.User.Bio)
	require.Equal(t, "https://ivan.example.com", profile.User.Website)
	require.Equal(t, "Lisbon", profile.User.Location)

	// Omitted fields stay as they are; an empty string clears.
	profile = decodeProfile(t, env, http.MethodPut, map[string]string{"bio": ""})
	require.Equal(t, "Ivan Petrov", profile.User.Name)
	require.Empty(t, profile.User.Bio)
	require.Equal(t, "Lisbon", profile.User.Location)

	profile = decodeProfile(t, env, http.MethodGet, nil)
	require.Equal(t, "https://ivan.example.com", profile.User.Website)
}

func TestProfileUpdateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateAccount("judy@example.com", "Password1", true, false)
	env.Login("judy@example.com", "Password1")

	for _, body := range []map[string]string{
		{"name": ""},
		{"name": "J"},
		{"website": "not a url"},
		{"avatar": "ftp//broken"},
	} {
		w := env.Request(http.MethodPut, "/api/profile", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		require.Equal(t, "BAD_REQUEST", testutil.DecodeResponse(t, w).Error.Code)
	}

	require.Equal(t, "Test Account", decodeProfile(t, env, http.MethodGet, nil).User.Name)
}
