package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/mailer"
	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
	"github.com/frahmantamala/benefits-portal/pkg/logger"
)

// remindCmd triggers one reminder pass without going through HTTP, for local
// runs and one-off catch-ups.
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the payment reminder pass once",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReminders(); err != nil {
			fmt.Fprintf(os.Stderr, "reminder pass failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func runReminders() error {
	cfg, err := loadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backing, db, err := initStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize row store: %w", err)
	}
	if db != nil {
		defer db.Close()
	}
	store := rowstore.NewCached(backing, rowstore.NewCache(), cfg.Database.EffectiveCacheTTL())

	var sender mailer.Sender
	if cfg.Mail.ResendAPIKey != "" {
		sender = mailer.NewResend(cfg.Mail.ResendAPIKey, cfg.Mail.From, log)
	} else {
		sender = mailer.NewDev(log)
	}

	recorder := audit.NewRecorder(store, log)
	configService := appconfig.NewService(store, recorder, log)
	engine := reminder.NewEngine(store, sender, recorder, configService, log, cfg.Server.BaseURL)

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("reminder pass finished", "date", summary.Date, "total", summary.Total)
	for _, result := range summary.Results {
		log.Info("reminder result",
			"payment_id", result.PaymentID,
			"type", result.ReminderType,
			"status", result.Status)
	}
	return nil
}
