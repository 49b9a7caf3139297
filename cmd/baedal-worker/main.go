package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"baedal/internal/amqp"
	"baedal/internal/cli"
	"baedal/internal/config"
	"baedal/internal/log"
	gsheet "baedal/internal/sheets/google"
	"baedal/internal/worker"
)

func main() {
	restore := flag.Bool("restore", false, "replace the persisted ledger with the Google Sheets snapshot and exit")
	flag.Parse()

	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	if err == nil {
		err = run(cfg, logger, *restore)
	}
	if err != nil {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger, restore bool) error {
	if !cfg.BackupEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is required for the backup worker")
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	persistence, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer persistence.Cleanup()

	credsFile := cfg.GoogleServiceAccountFile
	if credsFile == "" {
		credsFile = cfg.GoogleApplicationCredFile
	}
	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: credsFile,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	if restore {
		n, err := worker.Restore(ctx, sheets, persistence.Persister)
		if err != nil {
			return err
		}
		logger.Info("Ledger restored from Google Sheets",
			log.FieldOperation, log.OpRestore,
			log.FieldCount, n,
			log.FieldBackend, persistence.Type.String())
		return nil
	}

	backup := worker.NewBackupWorker(persistence.Persister, sheets, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(backup.Run(gctx, cfg.BackupInterval))
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on the backup timer", log.FieldError, err)
		} else {
			defer client.Close()
			g.Go(func() error {
				return ignoreCanceled(client.ConsumeEntriesChanged(gctx, backup.HandleEntriesChanged))
			})
		}
	} else {
		logger.Info("AMQP disabled, backups run on the timer only", "interval", cfg.BackupInterval.String())
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
