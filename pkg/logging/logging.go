package logging

import (
	"context"

	"github.com/Peripli/service-manager/pkg/log"
	"github.com/onrik/logrus/filename"
	"github.com/pkg/errors"
)

// Setup configures the logging of the feature browser and returns a context carrying the configured logger
func Setup(ctx context.Context, settings *log.Settings) (context.Context, error) {
	log.AddHook(&ErrorLocationHook{})
	hook := filename.NewHook()
	hook.Field = "logSource"
	log.AddHook(hook)

	ctx, err := log.Configure(ctx, settings)
	if err != nil {
		return nil, errors.Wrap(err, "error configuring logging")
	}
	return ctx, nil
}
