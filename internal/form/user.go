package form

import (
	"net/url"
	"strings"
)

// LoginInput is the email/password login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func DecodeLogin(values url.Values) LoginInput {
	return LoginInput{
		Email:    strings.ToLower(strings.TrimSpace(values.Get("email"))),
		Password: values.Get("password"),
	}
}

// UserInput provisions an administrator from the command line.
type UserInput struct {
	Email    string `form:"email" validate:"required,email"`
	Name     string `form:"display_name" validate:"required,max=100"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}
