package storefront

import (
	"context"
	"net/http"
	"net/mail"
)

// FieldError attaches a message to a specific form input, mirroring how
// the web forms display validation and server failures.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// genericFailure is what both forms show when a request fails for a
// reason the user cannot act on. The original forms collapse network
// and server failures into one message on the password field.
func genericFailure() *FieldError {
	return &FieldError{Field: "password", Message: "Something went wrong. Please try again."}
}

// SignUpForm carries the signup inputs
type SignUpForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate applies the form's client-side rules
func (f *SignUpForm) Validate() *FieldError {
	if f.Name == "" {
		return &FieldError{Field: "name", Message: "Name is required"}
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &FieldError{Field: "email", Message: "Invalid email"}
	}
	if len(f.Password) < 6 {
		return &FieldError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	if f.ConfirmPassword == "" {
		return &FieldError{Field: "confirmPassword", Message: "Confirm Password is required"}
	}
	if f.Password != f.ConfirmPassword {
		return &FieldError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	return nil
}

// LogInForm carries the login inputs
type LogInForm struct {
	Email    string
	Password string
}

// Validate applies the form's client-side rules
func (f *LogInForm) Validate() *FieldError {
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &FieldError{Field: "email", Message: "Invalid email"}
	}
	if f.Password == "" {
		return &FieldError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// SignUp runs the signup flow: validate, pre-check the email, then
// create the account. A taken email becomes a field error on the email
// input whether it is caught by the pre-check or by the create call.
func (c *Client) SignUp(ctx context.Context, form SignUpForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	exists, err := c.CheckEmail(ctx, form.Email)
	if err != nil {
		// The pre-check is a hint; the create call is authoritative
		exists = false
	}
	if exists {
		return &FieldError{Field: "email", Message: "Email already exists"}
	}

	status, err := c.postJSON(ctx, "/api/user/", createRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	}, nil)
	if err != nil {
		return genericFailure()
	}

	switch status {
	case http.StatusCreated:
		return nil
	case http.StatusBadRequest:
		return &FieldError{Field: "email", Message: "Email already exists"}
	default:
		return genericFailure()
	}
}

// LogIn runs the login flow and maps the backend's statuses onto the
// form fields: unknown email to the email input, wrong password to the
// password input.
func (c *Client) LogIn(ctx context.Context, form LogInForm) (*Session, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var resp loginResponse
	status, err := c.postJSON(ctx, "/api/user/login", loginRequest{
		Email:    form.Email,
		Password: form.Password,
	}, &resp)
	if err != nil {
		return nil, genericFailure()
	}

	switch status {
	case http.StatusOK:
		return &Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			TokenType:    resp.TokenType,
			ExpiresIn:    resp.ExpiresIn,
		}, nil
	case http.StatusNotFound:
		return nil, &FieldError{Field: "email", Message: "Invalid email"}
	case http.StatusUnauthorized:
		return nil, &FieldError{Field: "password", Message: "Invalid password"}
	default:
		return nil, genericFailure()
	}
}
