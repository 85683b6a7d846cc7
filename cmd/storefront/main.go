// Command storefront exercises the storefront API from the terminal:
// sign up, check whether an email is registered, or log in, with the
// same validation and field-error mapping as the web forms.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/trendora/storefront-api/internal/config"
	"github.com/trendora/storefront-api/pkg/storefront"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var fieldErr *storefront.FieldError
		if errors.As(err, &fieldErr) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", fieldErr.Field, fieldErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("storefront", flag.ExitOnError)
	action := fs.String("action", "check", "one of: signup, check, login")
	name := fs.String("name", "", "account name (signup)")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (signup, login)")
	confirm := fs.String("confirm", "", "password confirmation (signup)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.LoadClient()
	client := storefront.NewClient(cfg.BaseURL, &http.Client{Timeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch *action {
	case "signup":
		form := storefront.SignUpForm{
			Name:            *name,
			Email:           *email,
			Password:        *password,
			ConfirmPassword: *confirm,
		}
		if err := client.SignUp(ctx, form); err != nil {
			return err
		}
		fmt.Println("account created")
		return nil
	case "check":
		exists, err := client.CheckEmail(ctx, *email)
		if err != nil {
			return err
		}
		fmt.Printf("exists: %t\n", exists)
		return nil
	case "login":
		session, err := client.LogIn(ctx, storefront.LogInForm{Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Printf("logged in, access token expires in %ds\n", session.ExpiresIn)
		fmt.Println(session.AccessToken)
		return nil
	default:
		return fmt.Errorf("unknown action %q", *action)
	}
}
