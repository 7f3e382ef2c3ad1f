package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/blogservice"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/contactservice"
	"github.com/sushihentaime/inkwell/internal/credential"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/mailservice"
	"github.com/sushihentaime/inkwell/internal/resourceservice"
	"github.com/sushihentaime/inkwell/internal/userservice"
)

type application struct {
	config          *Config
	logger          *slog.Logger
	db              *sql.DB
	issuer          *credential.JWTIssuer
	blobs           *blobstore.FileStore
	limiter         *common.RateLimiter
	ledger          *ledger.Ledger
	userService     *userservice.UserService
	blogService     *blogservice.BlogService
	resourceService *resourceservice.ResourceService
	contactService  *contactservice.ContactService
	mailService     *mailservice.MailService
}

func main() {
	configPath := flag.String("config", ".env", "path to the env file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		dsn := common.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		m, err := common.Migrate(cfg.MigrationsPath, dsn)
		if err != nil {
			logger.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		m.Close()
		logger.Info("database migrations applied")
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQHost, cfg.MQPort, cfg.MQUser, cfg.MQPassword))
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupNotificationExchange(broker)
	if err != nil {
		logger.Error("failed to setup the notification exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	blobs, err := blobstore.NewFileStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		logger.Error("failed to open the blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := newApplication(cfg, logger, db, broker, blobs)
	defer app.limiter.Stop()

	app.mailService = mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
	defer app.mailService.Close()

	err = app.mailService.SendNotifications()
	if err != nil {
		logger.Error("failed to start the mail service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ReconcileInterval > 0 {
		app.ledger.StartReconciler(ctx, cfg.ReconcileInterval)
	}

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newApplication wires the services shared by the server and its tests.
func newApplication(cfg *Config, logger *slog.Logger, db *sql.DB, producer common.MessageProducer, blobs *blobstore.FileStore) *application {
	issuer := credential.NewJWTIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	notifier := common.NewBrokerNotifier(producer)
	l := ledger.NewLedger(db, logger)
	cache := common.NewCache(time.Minute, 5*time.Minute)

	return &application{
		config:          cfg,
		logger:          logger,
		db:              db,
		issuer:          issuer,
		blobs:           blobs,
		limiter:         common.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute),
		ledger:          l,
		userService:     userservice.NewUserService(db, issuer, blobs, notifier, l, cfg.FrontendURL, logger),
		blogService:     blogservice.NewBlogService(db, cache, blobs, l, logger),
		resourceService: resourceservice.NewResourceService(db, blobs, logger),
		contactService:  contactservice.NewContactService(db, notifier, cfg.ContactEmail, logger),
	}
}
