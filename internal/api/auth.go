package api

import (
	"context"
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/model"
)

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, "POST", "/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, "POST", "/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecoverPassword asks the backend to mail a reset link to email.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/usuarios/recuperar-password", map[string]string{"email": email}, nil)
}

// ChangePassword replies with plain text, which is discarded.
func (c *Client) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, "PUT", fmt.Sprintf("/usuarios/%d/cambiar-password", userID), body, nil)
}

func (c *Client) User(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, "GET", fmt.Sprintf("/usuarios/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, "PUT", fmt.Sprintf("/usuarios/%d", id), upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
