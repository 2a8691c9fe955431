package main

import (
	"context"

	"github.com/Peripli/feature-browser/pkg/app"
	"github.com/Peripli/feature-browser/pkg/config"
	"github.com/Peripli/service-manager/pkg/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	environment, err := config.DefaultEnv(ctx)
	if err != nil {
		log.C(ctx).WithError(err).Fatal("Error loading configuration")
	}

	application, err := app.New(ctx, cancel, environment)
	if err != nil {
		log.C(ctx).WithError(err).Fatal("Error creating feature browser")
	}

	if err := application.Run(); err != nil {
		log.C(ctx).WithError(err).Fatal("Feature browser stopped with an error")
	}
}
