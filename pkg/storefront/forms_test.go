package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend scripts the three account endpoints
type fakeBackend struct {
	exists       bool
	createStatus int
	loginStatus  int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/check", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"exists": f.exists})
	})
	mux.HandleFunc("POST /api/user/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(f.createStatus)
		json.NewEncoder(w).Encode(map[string]string{"message": "x"})
	})
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(f.loginStatus)
		if f.loginStatus == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"success":       true,
				"message":       "Login successful",
				"access_token":  "access",
				"refresh_token": "refresh",
				"token_type":    "Bearer",
				"expires_in":    900,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "x"})
	})
	return mux
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client())
}

func validSignUp() SignUpForm {
	return SignUpForm{
		Name:            "Ann",
		Email:           "ann@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestSignUpForm_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*SignUpForm)
		wantField string
	}{
		{"missing name", func(f *SignUpForm) { f.Name = "" }, "name"},
		{"bad email", func(f *SignUpForm) { f.Email = "nope" }, "email"},
		{"short password", func(f *SignUpForm) { f.Password = "12345"; f.ConfirmPassword = "12345" }, "password"},
		{"missing confirm", func(f *SignUpForm) { f.ConfirmPassword = "" }, "confirmPassword"},
		{"mismatch", func(f *SignUpForm) { f.ConfirmPassword = "other" }, "confirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validSignUp()
			tt.mutate(&form)
			err := form.Validate()
			require.NotNil(t, err)
			assert.Equal(t, tt.wantField, err.Field)
		})
	}

	form := validSignUp()
	assert.Nil(t, form.Validate())
}

func TestSignUp_Success(t *testing.T) {
	client := newTestClient(t, &fakeBackend{createStatus: http.StatusCreated})

	err := client.SignUp(context.Background(), validSignUp())
	assert.NoError(t, err)
}

func TestSignUp_EmailTakenViaPreCheck(t *testing.T) {
	client := newTestClient(t, &fakeBackend{exists: true, createStatus: http.StatusCreated})

	err := client.SignUp(context.Background(), validSignUp())

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)
	assert.Equal(t, "Email already exists", fieldErr.Message)
}

func TestSignUp_EmailTakenViaCreate(t *testing.T) {
	// Pre-check misses (the race window); the create call is authoritative
	client := newTestClient(t, &fakeBackend{exists: false, createStatus: http.StatusBadRequest})

	err := client.SignUp(context.Background(), validSignUp())

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)
}

func TestSignUp_ServerFailureIsGeneric(t *testing.T) {
	client := newTestClient(t, &fakeBackend{createStatus: http.StatusInternalServerError})

	err := client.SignUp(context.Background(), validSignUp())

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "password", fieldErr.Field)
}

func TestLogIn_Success(t *testing.T) {
	client := newTestClient(t, &fakeBackend{loginStatus: http.StatusOK})

	session, err := client.LogIn(context.Background(), LogInForm{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.Equal(t, "Bearer", session.TokenType)
}

func TestLogIn_UnknownEmailMapsToEmailField(t *testing.T) {
	client := newTestClient(t, &fakeBackend{loginStatus: http.StatusNotFound})

	_, err := client.LogIn(context.Background(), LogInForm{Email: "bob@x.com", Password: "x1x2x3"})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)
	assert.Equal(t, "Invalid email", fieldErr.Message)
}

func TestLogIn_WrongPasswordMapsToPasswordField(t *testing.T) {
	client := newTestClient(t, &fakeBackend{loginStatus: http.StatusUnauthorized})

	_, err := client.LogIn(context.Background(), LogInForm{Email: "ann@x.com", Password: "wrong1"})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "password", fieldErr.Field)
	assert.Equal(t, "Invalid password", fieldErr.Message)
}

func TestLogIn_NetworkFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on
	client := NewClient(url, nil)

	_, err := client.LogIn(context.Background(), LogInForm{Email: "ann@x.com", Password: "secret1"})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "password", fieldErr.Field)
}

func TestLogIn_Validate(t *testing.T) {
	client := newTestClient(t, &fakeBackend{loginStatus: http.StatusOK})

	_, err := client.LogIn(context.Background(), LogInForm{Email: "nope", Password: "secret1"})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)

	_, err = client.LogIn(context.Background(), LogInForm{Email: "ann@x.com", Password: ""})
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "password", fieldErr.Field)
}

func TestCheckEmail(t *testing.T) {
	client := newTestClient(t, &fakeBackend{exists: true})

	exists, err := client.CheckEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
