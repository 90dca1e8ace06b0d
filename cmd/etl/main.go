package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/drive"
	"github.com/alkana/warehouse-go/internal/etl/excel"
	"github.com/alkana/warehouse-go/internal/etl/loader"
	"github.com/alkana/warehouse-go/internal/etl/pipeline"
	"github.com/alkana/warehouse-go/internal/etl/transform"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

type etlEnv struct {
	db      *postgres.DB
	loaders *loader.Registry
	tf      *transform.Transformer
	wh      *postgres.WarehouseRepo
}

func openEnv(c *cli.Context) (*etlEnv, error) {
	db, err := postgres.OpenURL(c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	raw := postgres.NewRawStore(db)
	wh := postgres.NewWarehouseRepo(db)
	rules := domain.DefaultRules()

	return &etlEnv{
		db:      db,
		loaders: loader.NewRegistry(raw),
		tf:      transform.New(raw, wh, rules),
		wh:      wh,
	}, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "etl",
		Usage: "Load SAP exports into the warehouse and rebuild the derived facts",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the warehouse schema and seed the dimension tables",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: runInit,
			},
			{
				Name:  "load",
				Usage: "Load one workbook, or every workbook in a directory, into the raw tables",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Workbook file or directory of workbooks",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Export type (COOISPI, MB51, ...); detected from headers when omitted",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Load mode: upsert or insert",
						Value: string(loader.ModeUpsert),
					},
					&cli.StringFlag{
						Name:  "snapshot-date",
						Usage: "Snapshot date (YYYY-MM-DD), required for ZRFI005 files",
					},
				},
				Action: runLoad,
			},
			{
				Name:  "transform",
				Usage: "Rebuild fact tables from the raw staging tables",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "only",
						Usage: "Rebuild one fact: production, inventory, purchase-orders, billing, deliveries, ar-aging, targets, performance, leadtimes, dims, uom",
					},
					&cli.IntFlag{
						Name:  "month",
						Usage: "Reference month for performance facts (1-12)",
						Value: int(time.Now().Month()),
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "Reference year for performance facts",
						Value: time.Now().Year(),
					},
				},
				Action: runTransform,
			},
			{
				Name:  "detect",
				Usage: "Scan finished orders for delayed factory-to-DC transit and open alerts",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Float64Flag{
						Name:  "threshold-hours",
						Usage: "Transit hours above which an alert fires",
						Value: 48,
					},
				},
				Action: runDetect,
			},
			{
				Name:  "test",
				Usage: "Probe the database connection",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: runTest,
			},
			{
				Name:  "truncate",
				Usage: "Clear every fact and derived dimension table",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: runTruncate,
			},
			{
				Name:  "run",
				Usage: "Create the schema, load a directory of workbooks and rebuild every fact",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Directory of workbooks",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "snapshot-date",
						Usage: "Snapshot date (YYYY-MM-DD) applied to ZRFI005 files",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of workbooks loaded concurrently",
						Value: 4,
					},
				},
				Action: runFull,
			},
			{
				Name:  "drive-sync",
				Usage: "Download workbooks from a Google Drive folder into a local directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "credentials-file",
						Usage:    "Service account credentials JSON file",
						Required: true,
						EnvVars:  []string{"DRIVE_CREDENTIALS_FILE"},
					},
					&cli.StringFlag{
						Name:     "folder",
						Usage:    "Drive folder path relative to the root",
						Required: true,
						EnvVars:  []string{"DRIVE_FOLDER_PATH"},
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Local download directory",
						Value: "./data/source",
					},
				},
				Action: runDriveSync,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runInit(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	ctx := c.Context
	if err := postgres.InitSchema(ctx, env.db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := postgres.SeedDimensions(ctx, env.db, domain.DefaultRules()); err != nil {
		return fmt.Errorf("failed to seed dimensions: %w", err)
	}

	log.Println("Schema created and dimensions seeded")
	return nil
}

func runLoad(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	mode := loader.Mode(c.String("mode"))
	if mode != loader.ModeUpsert && mode != loader.ModeInsert {
		return fmt.Errorf("invalid mode %q (want upsert or insert)", mode)
	}

	snapshot, err := parseSnapshotFlag(c)
	if err != nil {
		return err
	}

	paths, err := collectWorkbooks(c.String("path"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no xlsx workbooks found under %s", c.String("path"))
	}

	forced := domain.FileType(strings.ToUpper(c.String("type")))
	for _, path := range paths {
		if err := loadOne(c.Context, env, path, forced, mode, snapshot); err != nil {
			return err
		}
	}
	return nil
}

func loadOne(ctx context.Context, env *etlEnv, path string, forced domain.FileType, mode loader.Mode, snapshot *time.Time) error {
	ft := forced
	if ft == "" {
		detected, err := excel.Detect(path)
		if err != nil {
			return fmt.Errorf("could not detect type of %s: %w", path, err)
		}
		ft = detected
	}

	l, ok := env.loaders.For(ft)
	if !ok {
		return fmt.Errorf("no loader for file type %s", ft)
	}

	opts := loader.Options{Mode: mode}
	if ft == domain.FileTypeZrfi005 {
		if snapshot == nil {
			return fmt.Errorf("%s: ZRFI005 files need --snapshot-date", path)
		}
		opts.SnapshotDate = snapshot
	}

	stats, err := l.Load(ctx, path, opts)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	log.Printf("Loaded %s (%s): %d loaded, %d updated, %d skipped, %d failed",
		filepath.Base(path), ft, stats.Loaded, stats.Updated, stats.Skipped, stats.Failed)
	return nil
}

func runTransform(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	return runTransforms(c.Context, env, c.String("only"),
		time.Month(c.Int("month")), c.Int("year"))
}

func runTransforms(ctx context.Context, env *etlEnv, only string, month time.Month, year int) error {
	type step struct {
		name string
		run  func(context.Context) error
	}
	steps := []step{
		{"uom", env.tf.RefreshUOMConversions},
		{"dims", env.tf.RefreshMaterialDims},
		{"production", env.tf.TransformProduction},
		{"inventory", env.tf.TransformInventory},
		{"purchase-orders", env.tf.TransformPurchaseOrders},
		{"billing", env.tf.TransformBilling},
		{"deliveries", env.tf.TransformDeliveries},
		{"ar-aging", env.tf.TransformARAging},
		{"targets", env.tf.TransformTargets},
		{"performance", func(ctx context.Context) error {
			return env.tf.TransformPerformance(ctx, month, year)
		}},
		{"leadtimes", env.tf.TransformLeadTimes},
	}

	if only != "" {
		for _, s := range steps {
			if s.name == only {
				return s.run(ctx)
			}
		}
		return fmt.Errorf("unknown transform %q", only)
	}

	for _, s := range steps {
		log.Printf("Running %s transform...", s.name)
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s transform failed: %w", s.name, err)
		}
	}
	return nil
}

func runDetect(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	return env.tf.DetectAlerts(c.Context, c.Float64("threshold-hours"))
}

func runTest(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	if err := env.db.PingContext(c.Context); err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}
	log.Println("Database connection OK")
	return nil
}

func runTruncate(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	if err := env.wh.TruncateWarehouse(c.Context); err != nil {
		return fmt.Errorf("failed to truncate warehouse: %w", err)
	}
	log.Println("Warehouse fact tables truncated")
	return nil
}

func runFull(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.db.Close()

	snapshot, err := parseSnapshotFlag(c)
	if err != nil {
		return err
	}

	if err := postgres.InitSchema(c.Context, env.db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := postgres.SeedDimensions(c.Context, env.db, domain.DefaultRules()); err != nil {
		return fmt.Errorf("failed to seed dimensions: %w", err)
	}

	paths, err := collectWorkbooks(c.String("path"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no xlsx workbooks found under %s", c.String("path"))
	}

	runner := pipeline.NewRunner(env.loaders, pipeline.Config{
		WorkerCount:  c.Int("workers"),
		Mode:         loader.ModeUpsert,
		SnapshotDate: snapshot,
	})
	results, err := runner.Run(c.Context, paths)
	if err != nil {
		return err
	}
	if failed := pipeline.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d workbooks failed to load", failed, len(results))
	}

	// Facts rebuild from scratch; raw tables stay intact.
	if err := env.wh.TruncateWarehouse(c.Context); err != nil {
		return fmt.Errorf("failed to truncate warehouse: %w", err)
	}

	now := time.Now()
	return runTransforms(c.Context, env, "", now.Month(), now.Year())
}

func runDriveSync(c *cli.Context) error {
	creds, err := os.ReadFile(c.String("credentials-file"))
	if err != nil {
		return fmt.Errorf("failed to read drive credentials: %w", err)
	}

	svc, err := drive.NewService(c.Context, creds)
	if err != nil {
		return err
	}

	paths, err := drive.NewSyncer(svc).SyncFolder(c.Context, drive.SyncOptions{
		FolderPath:  c.String("folder"),
		DownloadDir: c.String("out"),
	})
	if err != nil {
		return err
	}

	log.Printf("Downloaded %d workbooks to %s", len(paths), c.String("out"))
	return nil
}

func parseSnapshotFlag(c *cli.Context) (*time.Time, error) {
	raw := c.String("snapshot-date")
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot-date %q (want YYYY-MM-DD)", raw)
	}
	return &parsed, nil
}

func collectWorkbooks(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", path, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			continue
		}
		paths = append(paths, filepath.Join(path, e.Name()))
	}
	return paths, nil
}
