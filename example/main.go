package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/CherkashinEvgeny/goadvice/manifest"
	"github.com/rs/zerolog"
)

const fee = 2

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.DebugLevel).With().Timestamp().Logger()

	registry := advice.NewRegistry()
	m, err := manifest.Load(filepath.Join("example", "advice.yaml"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load manifest")
	}
	if err = m.Apply(registry); err != nil {
		logger.Fatal().Err(err).Msg("apply manifest")
	}
	scripts, err := m.Resolver()
	if err != nil {
		logger.Fatal().Err(err).Msg("load plugins")
	}
	defer scripts.Close()

	container := advice.NewContainer()
	container.Register("audit", advice.NewTable().
		OnAfter("Charge", func(ctx context.Context, subject any, result any, args advice.Args) (any, error) {
			fmt.Println("After", "Charge", args, "->", result)
			return result, nil
		}))

	_ = registry.Before("log", "Billing@Charge", advice.BeforeFunc(logCall))
	_ = registry.Before("log", "Billing@Refund", advice.BeforeFunc(logCall))
	_ = registry.Around("fee", "Billing@Charge", advice.AroundFunc(chargeFee))
	_ = registry.After("audit", "Billing@Charge", advice.Plugin("audit"))

	dispatcher := advice.NewDispatcher(registry,
		advice.WithResolver(advice.Resolvers{container, scripts}),
		advice.WithLogger(logger),
	)

	var billing Billing = NewBillingAdvised(&LocalBilling{balance: 1000}, dispatcher)
	ctx := context.Background()
	if _, err = billing.Charge(ctx, 100); err != nil {
		logger.Error().Err(err).Msg("charge")
	}
	if _, err = billing.Charge(ctx, 900); err != nil {
		logger.Error().Err(err).Msg("charge")
	}
	if _, err = billing.Refund(ctx, 50); err != nil {
		logger.Error().Err(err).Msg("refund")
	}
	fmt.Println("Balance", billing.Balance())
}

func logCall(ctx context.Context, subject any, args advice.Args) (advice.Args, error) {
	fmt.Println("Before", args)
	return advice.Unchanged, nil
}

// chargeFee adds a fixed fee to every charge.
func chargeFee(ctx context.Context, subject any, next advice.Next, args advice.Args) (any, error) {
	return next(ctx, advice.Args{advice.As[int](args[0]) + fee})
}
