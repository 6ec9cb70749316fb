package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/config"
	"github.com/jengzang/crash-records-backend-go/internal/database"
	"github.com/jengzang/crash-records-backend-go/internal/importer"
	"github.com/jengzang/crash-records-backend-go/internal/repository"
)

func main() {
	cfg := config.Load()

	csvPath := flag.String("csv", cfg.CSVPath, "path to the cleaned collision CSV")
	sampleRows := flag.Int("sample", cfg.ImportSampleRows, "import at most this many rows (0 = all)")
	batchSize := flag.Int("batch", cfg.ImportBatchSize, "rows per transaction")
	truncate := flag.Bool("truncate", false, "delete existing records before importing")
	flag.Parse()

	cfg.ImportBatchSize = *batchSize
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := database.Init(cfg.Database()); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewCrashRepository(database.GetDB())
	im := importer.New(repo, importer.Options{
		SampleRows: *sampleRows,
		BatchSize:  *batchSize,
		Truncate:   *truncate,
	})

	log.Printf("[Importer] importing %s into %s", *csvPath, cfg.DBDriver)
	res, err := im.ImportFile(ctx, *csvPath)
	if err != nil {
		log.Fatalf("Import failed after %d rows: %v", res.Rows, err)
	}

	crashes, persons, err := repo.Counts(ctx)
	if err != nil {
		log.Fatalf("Failed to count records: %v", err)
	}

	log.Printf("[Importer] done in %s: %d rows read, %d skipped, %d crashes, %d persons written",
		res.Duration.Round(time.Millisecond), res.Rows, res.Skipped, res.Crashes, res.Persons)
	log.Printf("[Importer] store now holds %d crashes and %d persons", crashes, persons)
}
