package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sataddr/sataddr/internal/config"
	"github.com/sataddr/sataddr/internal/gateway"
	"github.com/sataddr/sataddr/internal/http_api"
	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/internal/notificator"
	"github.com/sataddr/sataddr/internal/relay"
	"github.com/sataddr/sataddr/internal/repository"
	"github.com/sataddr/sataddr/internal/stats"
	"github.com/sataddr/sataddr/internal/transport"
	"github.com/sataddr/sataddr/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "sataddr",
		Usage: "Sataddr is a lightning address server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Aliases: []string{"H"}, Usage: "Listen host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port"},
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"w"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the address server",
				Action: serve,
			},
			{
				Name:  "db",
				Usage: "Import or dump the address store",
				Subcommands: []*cli.Command{
					{
						Name:  "import",
						Usage: "Load address records from a JSON file into the store",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "path", Required: true, Usage: "JSON file to read"},
						},
						Action: dbImport,
					},
					{
						Name:  "dump",
						Usage: "Write every address record to a JSON file",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "path", Required: true, Usage: "JSON file to write"},
						},
						Action: dbDump,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print usage counters per address",
				Action: printStats,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig merges the environment configuration with command line
// overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	return cfg, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (models.Repository, error) {
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	db, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	policy := transport.Policy{
		AllowInsecureTLS: cfg.AllowInsecureTLS,
		TorProxyURL:      cfg.TorProxyURL,
	}
	issuer := gateway.New(log, policy, cfg.LNBitsURL, cfg.InvoiceTimeout)
	relayClient := relay.New(log, cfg.LNBitsURL, cfg.LNBitsAPIKey, cfg.LNBitsAdminID)

	notifier, err := notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		return fmt.Errorf("failed to initialize notificator: %v", err)
	}

	apiServer := http_api.NewHTTPServer(cfg, db, issuer, relayClient, notifier, cfg.PinSecret, log)

	go apiServer.Start()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	return apiServer.Shutdown()
}

func dbImport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	db, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.String("path"))
	if err != nil {
		return fmt.Errorf("failed to read dump: %v", err)
	}

	var records []*models.AddressRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("failed to parse dump: %v", err)
	}

	for _, rec := range records {
		existed, err := db.Insert(rec.Name, rec.Domain, rec)
		if err != nil {
			return fmt.Errorf("failed to import %s: %v", rec.Key(), err)
		}
		if existed {
			log.Infof("Replaced %s", rec.Key())
		}
	}

	log.Infof("Imported %d records", len(records))
	return nil
}

func dbDump(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	db, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	records, err := db.All()
	if err != nil {
		return fmt.Errorf("failed to scan store: %v", err)
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize records: %v", err)
	}

	if err := os.WriteFile(c.String("path"), raw, 0o600); err != nil {
		return fmt.Errorf("failed to write dump: %v", err)
	}

	log.Infof("Dumped %d records", len(records))
	return nil
}

func printStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	db, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	report, err := stats.Collect(db)
	if err != nil {
		return fmt.Errorf("failed to collect stats: %v", err)
	}

	keys := make([]string, 0, len(report.PerAddress))
	for key := range report.PerAddress {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return report.PerAddress[keys[i]].Total() > report.PerAddress[keys[j]].Total()
	})

	for _, key := range keys {
		s := report.PerAddress[key]
		fmt.Printf("%-40s invoices=%d calls=%d edits=%d\n", key, s.Invoices.Num, s.Calls.Num, s.Edits.Num)
	}
	fmt.Printf("%-40s invoices=%d calls=%d edits=%d\n", "total",
		report.Summary.Invoices, report.Summary.Calls, report.Summary.Edits)
	return nil
}
