package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/Amar2502/portfolio-backend/api"
	"github.com/Amar2502/portfolio-backend/config"
	"github.com/Amar2502/portfolio-backend/database"
	"github.com/Amar2502/portfolio-backend/models"
	"github.com/Amar2502/portfolio-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)
	log.Info().Msg("Initializing app...")

	if path := config.GetString(c, "SSM_PARAMETER_PATH", ""); path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := config.LoadSSMParameters(ctx, c, path)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Error loading SSM parameters")
		}
		log.Info().Int("count", n).Str("path", path).Msg("Loaded SSM parameters")
		setupLogging(c)
	}

	if config.GetBool(c, "GENERATE_MODELS", false) || config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		runOpsMode(c)
		return
	}

	db, err := database.New(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring database")
	}
	log.Info().Str("dbType", db.Type()).Msg("Database configured")

	// Warm up in the background; requests open it on demand if this fails.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Database not reachable yet")
			return
		}
		log.Info().Msg("Database connected")
	}()

	svc, closeServices := buildServices(c)
	defer closeServices()

	server, err := api.NewServer(db, svc, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// buildServices wires the optional collaborators. Anything without configuration stays nil.
func buildServices(c map[string]string) (api.Services, func()) {
	var svc api.Services
	closers := []func(){}

	projects, err := loadProjects(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading projects")
	}
	svc.Projects = projects

	sender, err := services.NewEmailSender(c)
	if err != nil {
		log.Warn().Err(err).Msg("Contact form disabled")
	} else {
		var sms *services.SMSNotifier
		if sms = services.NewSMSNotifier(c); sms == nil {
			log.Info().Msg("SMS alerts disabled")
		}
		svc.Contact = services.NewContactService(sender, sms, config.GetString(c, "CONTACT_RECIPIENT", ""))
	}

	limiter, err := services.NewRedisRateLimiter(c, "contact")
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Contact rate limiting disabled")
	case limiter != nil:
		svc.RateLimiter = limiter
		closers = append(closers, func() { _ = limiter.Close() })
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	uploader, err := services.NewImageUploader(ctx, c)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Image uploads disabled")
	case uploader != nil:
		svc.Uploader = uploader
	default:
		log.Info().Msg("Image uploads disabled, S3_BUCKET not set")
	}

	return svc, func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

func loadProjects(c map[string]string) ([]models.Project, error) {
	path := config.GetString(c, "PROJECTS_FILE", "")
	if path == "" {
		return models.LoadProjects(nil)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return models.LoadProjects(source)
}

// runOpsMode handles GENERATE_MODELS and GENERATE_COLUMN_REPORT, then returns.
func runOpsMode(c map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.OpenGorm(c)(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	log.Info().Msg("Generating column mismatch report...")
	report, err := models.GenerateColumnMismatchReport(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating column report")
	}
	log.Info().
		Str("table", report.Table).
		Strs("extraColumns", report.ExtraColumns).
		Strs("missingFields", report.MissingFields).
		Msg("Column mismatch report")
}

func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(config.GetString(c, "LOG_FORMAT", "console"), "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
