package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fredrikburmester/streamcore/internal/cache"
	"github.com/fredrikburmester/streamcore/internal/config"
	"github.com/fredrikburmester/streamcore/internal/database"
	"github.com/fredrikburmester/streamcore/internal/device"
	"github.com/fredrikburmester/streamcore/internal/jellyfin"
	"github.com/fredrikburmester/streamcore/internal/jobs"
	"github.com/fredrikburmester/streamcore/internal/logging"
	"github.com/fredrikburmester/streamcore/internal/notification"
	"github.com/fredrikburmester/streamcore/internal/player"
	"github.com/fredrikburmester/streamcore/internal/remote"
	"github.com/fredrikburmester/streamcore/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	serverURL string
	apiKey    string
	userID    string
	dbPath    string
	verbosity int

	// Timeout flags (advanced)
	httpTimeout   time.Duration
	keepAlive     time.Duration
	positionUnits string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamcore",
		Short: "Streamcore - Headless media playback agent",
		Long:  `Streamcore is a headless playback agent for Jellyfin-compatible media servers: it mounts the remote control channel, manages track selection and skip windows, and runs background media jobs.`,
		RunE:  run,
	}

	// Flags
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "", "Media server base URL (required, or set SERVER_URL env var)")
	rootCmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "Media server API key (required, or set API_KEY env var)")
	rootCmd.Flags().StringVarP(&userID, "user", "u", "", "User id all server calls are made for (required, or set USER_ID env var)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "./streamcore.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	// Advanced timeout flags
	rootCmd.Flags().DurationVar(&httpTimeout, "http-timeout", 30*time.Second, "Timeout for HTTP requests to the media server")
	rootCmd.Flags().DurationVar(&keepAlive, "keep-alive", 30*time.Second, "Interval between control channel keep-alive frames")
	rootCmd.Flags().StringVar(&positionUnits, "position-units", "seconds", "Unit the playback engine reports positions in (seconds or milliseconds)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("streamcore %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Env fallbacks for unset flags
	if serverURL == "" {
		serverURL = os.Getenv("SERVER_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}
	if userID == "" {
		userID = os.Getenv("USER_ID")
	}
	if dbPath == "./streamcore.db" {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}

	if serverURL == "" {
		return fmt.Errorf("--server flag or SERVER_URL environment variable is required")
	}
	if apiKey == "" {
		return fmt.Errorf("--api-key flag or API_KEY environment variable is required")
	}
	if userID == "" {
		return fmt.Errorf("--user flag or USER_ID environment variable is required")
	}

	timeScale := 1.0
	switch positionUnits {
	case "seconds":
	case "milliseconds":
		timeScale = 1000
	default:
		return fmt.Errorf("invalid --position-units %q (want seconds or milliseconds)", positionUnits)
	}

	// Configure global timeouts before anything builds an HTTP client
	config.SetGlobalTimeouts(&config.TimeoutConfig{
		HTTPClient:         httpTimeout,
		WebSocketKeepAlive: keepAlive,
	})

	// Initialize database
	db, err := database.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Setup logging with rotation settings from the database
	loader := config.NewLoader(db)
	logging.Apply(verbosity, loader, logging.FilePathForDB(dbPath))

	log.Info().
		Str("version", version).
		Str("server", serverURL).
		Str("database", dbPath).
		Msg("Starting Streamcore")

	// Stable device identity for the control channel
	deviceID, err := device.EnsureID(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to establish device identity")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := jellyfin.New(serverURL, apiKey)
	if err := client.TestConnection(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to media server")
	}
	log.Info().Msg("Connected to media server")

	// Alerts go to the log and any configured webhook
	notifier := notification.NewDispatcher()
	if url := loader.String("notifications.webhook_url", ""); url != "" {
		notifier.Register(notification.NewWebhookProvider(url))
	}

	// Session wiring: headless player, query cache, per-series selections
	controls := player.NewHeadless()
	queryCache := cache.NewMemory()
	sessions := session.New(client, db, queryCache, controls, player.NopHaptics{}, session.Config{
		UserID:    userID,
		TimeScale: timeScale,
	})

	// Background job queue gated by the dynamic concurrency setting
	queue := jobs.NewQueue(loader, runJob)
	queue.Start()
	defer queue.Stop()

	// Nightly database maintenance
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 4 * * *", func() {
		retention := loader.Duration("selections.retention", 365*24*time.Hour)
		if pruned, err := db.PruneTrackSelections(retention); err != nil {
			log.Warn().Err(err).Msg("Failed to prune track selections")
		} else if pruned > 0 {
			log.Info().Int64("pruned", pruned).Msg("Pruned stale track selections")
		}
		if err := db.Optimize(); err != nil {
			log.Warn().Err(err).Msg("Database optimize failed")
		}
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to schedule database maintenance")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Mount the remote control channel
	socketURL, err := client.SocketURL(deviceID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build control socket URL")
	}
	channel, err := remote.Dial(ctx, remote.Config{URL: socketURL}, controls, nil, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to mount control channel")
	}
	defer channel.Close()

	// Drive the session's position clock while playing
	go positionLoop(ctx, controls, sessions, timeScale)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
	}

	sessions.End()
	log.Info().Msg("Streamcore stopped")
	return nil
}

// positionLoop feeds the player clock to the skip watchers once a second.
// The clock advances in player units, so one second is timeScale units.
func positionLoop(ctx context.Context, controls *player.Headless, sessions *session.Manager, timeScale float64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.OnPosition(controls.Advance(timeScale))
		}
	}
}

// runJob is the queue's single dispatch point
func runJob(ctx context.Context, job jobs.Job) error {
	switch p := job.Payload.(type) {
	case jobs.RemuxPayload:
		log.Info().Str("item_id", p.ItemID).Str("container", p.Container).Msg("Remux job started")
	case jobs.OptimizePayload:
		log.Info().Str("item_id", p.ItemID).Int("max_bitrate", p.MaxBitrate).Msg("Optimize job started")
	case jobs.DownloadPayload:
		log.Info().Str("item_id", p.ItemID).Str("target", p.TargetPath).Msg("Download job started")
	default:
		return fmt.Errorf("unknown job kind %q", job.Payload.Kind())
	}
	return nil
}
