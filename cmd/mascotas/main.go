package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/app"
	"github.com/dondeestamimascota/mascotas/internal/config"
	"github.com/dondeestamimascota/mascotas/internal/lock"
	"github.com/dondeestamimascota/mascotas/internal/profile"
	"github.com/dondeestamimascota/mascotas/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	cfg, err := config.Resolve(profile.ConfigPath(), profile.EnvPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	name := profile.Resolve(*profileFlag, cfg.DefaultProfile)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	deps := tui.Deps{Profile: name}
	fxApp := fx.New(
		app.Module(app.Params{
			Profile:   name,
			Binary:    "mascotas",
			Config:    cfg,
			Exclusive: true,
			AutoSync:  true,
		}),
		app.Logger(),
		fx.Populate(&deps.Store, &deps.Engine, &deps.Accounts, &deps.Reports, &deps.Bus, &deps.Logger),
	)
	if err := fxApp.Err(); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			fmt.Fprintf(os.Stderr, "error: %v\n", held)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.NewApp(deps).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		deps.Logger.Warn("shutdown", zap.Error(err))
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
