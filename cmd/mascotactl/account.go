package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dondeestamimascota/mascotas/internal/model"
)

// secret reads a password from env, or from stdin when env is unset.
func secret(in *bufio.Reader, env, label string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return prompt(in, label)
}

func cmdRegister(ctx context.Context, e *env, args []string) error {
	var reg model.Registration
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.StringVar(&reg.Name, "name", "", "first name")
	fs.StringVar(&reg.Surname, "surname", "", "surname")
	fs.StringVar(&reg.DNI, "dni", "", "DNI, digits only")
	fs.StringVar(&reg.Phone, "phone", "", "mobile phone")
	fs.StringVar(&reg.Image, "image", "", "profile picture URL")
	fs.StringVar(&reg.Email, "email", "", "email")
	fs.StringVar(&reg.Province, "province", "", "province")
	fs.StringVar(&reg.Locality, "locality", "", "locality")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := bufio.NewReader(os.Stdin)
	reg.Password = secret(in, "MASCOTAS_PASSWORD", "Password: ")
	reg.ConfirmPassword = secret(in, "MASCOTAS_PASSWORD", "Repeat password: ")

	u, err := e.accounts.Register(ctx, reg)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Printf("Welcome, %s. Logged in as #%d.\n", u.Name, u.ID)
	return nil
}

func cmdProfile(ctx context.Context, e *env, args []string) error {
	if _, err := e.session(ctx); err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "update" {
		return profileUpdate(ctx, e, args[1:])
	}
	if len(args) > 0 {
		return fmt.Errorf("unknown profile subcommand %q", args[0])
	}

	u := e.store.Snapshot().User
	if e.jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Printf("#%d %s %s\n", u.ID, u.Name, u.Surname)
	fmt.Printf("Email:       %s\n", u.Email)
	fmt.Printf("Phone:       %s\n", u.Phone)
	fmt.Printf("DNI:         %s\n", u.DNI)
	fmt.Printf("Location:    %s\n", place(u.Locality, u.Province))
	fmt.Printf("Coordinates: %s\n", coordinates(u.Latitude, u.Longitude))
	return nil
}

func profileUpdate(ctx context.Context, e *env, args []string) error {
	var upd model.ProfileUpdate
	fs := flag.NewFlagSet("profile update", flag.ContinueOnError)
	fs.StringVar(&upd.Name, "name", "", "first name")
	fs.StringVar(&upd.Surname, "surname", "", "surname")
	fs.StringVar(&upd.Phone, "phone", "", "mobile phone")
	fs.StringVar(&upd.Province, "province", "", "province")
	fs.StringVar(&upd.Locality, "locality", "", "locality")
	fs.StringVar(&upd.Image, "image", "", "profile picture URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if upd == (model.ProfileUpdate{}) {
		return errors.New("nothing to update, see: mascotactl profile update -h")
	}

	u, err := e.accounts.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Println("Profile updated.")
	return nil
}

func cmdPassword(ctx context.Context, e *env, _ []string) error {
	if _, err := e.session(ctx); err != nil {
		return err
	}
	in := bufio.NewReader(os.Stdin)
	change := model.PasswordChange{
		OldPassword: secret(in, "MASCOTAS_PASSWORD", "Current password: "),
		NewPassword: secret(in, "MASCOTAS_NEW_PASSWORD", "New password: "),
	}
	change.ConfirmPassword = secret(in, "MASCOTAS_NEW_PASSWORD", "Repeat new password: ")

	if err := e.accounts.ChangePassword(ctx, change); err != nil {
		return err
	}
	fmt.Println("Password changed.")
	return nil
}

func cmdRecover(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("recover", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.accounts.RecoverPassword(ctx, *email); err != nil {
		return err
	}
	fmt.Printf("If %s has an account, a recovery mail is on its way.\n", *email)
	return nil
}
