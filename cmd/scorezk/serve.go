package scorezk

import (
	"time"

	"github.com/mynextid/private-score/server"
	"github.com/mynextid/private-score/service"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	cfg := &server.ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the credit score API server",
		Long: `Start the HTTP API server for scoring wallets, managing score commitments
and generating and verifying zero-knowledge predicate proofs.

Secrets can be passed through the environment: PRIVATESCORE_JWT_SECRET,
PRIVATESCORE_INDEXER_API_KEY, PRIVATESCORE_POSTGRES_URL and
PRIVATESCORE_REDIS_PASSWORD.`,
		Example: `  # Development server, simulated proofs and in-memory store
  scorezk serve --jwt-secret $(openssl rand -hex 32)

  # Groth16 proofs from precompiled circuits, commitments in postgres
  scorezk serve --backend gnark --circuits-dir ./setup \
    --store postgres --postgres-url postgres://score@localhost/score

  # Production deployment with TLS
  scorezk serve --host 0.0.0.0 --port 443 --enable-tls \
    --cert-file /etc/ssl/cert.pem --key-file /etc/ssl/key.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cfg)
		},
	}

	// Server flags
	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to listen on")

	// Proof flags
	cmd.Flags().StringVar(&cfg.Backend, "backend", server.BackendSimulated, "Proof backend (simulated, gnark)")
	cmd.Flags().StringVarP(&cfg.CircuitsDir, "circuits-dir", "d", "./setup", "Directory containing compiled circuits")
	cmd.Flags().BoolVar(&cfg.CompileMissing, "compile-missing", false, "Compile circuits missing from the circuits directory")

	// Storage flags
	cmd.Flags().StringVar(&cfg.Store, "store", server.StoreMemory, "Commitment store (memory, badger, redis, postgres)")
	cmd.Flags().StringVar(&cfg.BadgerDir, "badger-dir", "./data", "Badger data directory")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&cfg.PostgresURL, "postgres-url", "", "Postgres connection string")
	cmd.Flags().StringVar(&cfg.PruneSchedule, "prune-schedule", "@hourly", "Cron schedule for removing expired commitments (empty disables)")

	// Indexer flags
	cmd.Flags().StringVar(&cfg.IndexerURL, "indexer-url", "", "Transaction indexer base URL (empty scores every wallet as new)")
	cmd.Flags().DurationVar(&cfg.IndexerTimeout, "indexer-timeout", 10*time.Second, "Indexer request timeout")
	cmd.Flags().IntVar(&cfg.HistoryLimit, "history-limit", service.DefaultHistoryLimit, "Maximum transactions fetched per wallet")
	cmd.Flags().DurationVar(&cfg.ScoreCacheTTL, "score-cache-ttl", service.DefaultScoreCacheTTL, "How long computed scores are cached")

	// Pool flags
	cmd.Flags().StringVar(&cfg.PoolsFile, "pools-file", "", "YAML file with lending pools (empty uses the built-in pools)")

	// Performance flags
	cmd.Flags().Int64Var(&cfg.MaxRequestSize, "max-request-size", 1024*1024, "Maximum request body size in bytes")
	cmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", 120*time.Second, "HTTP write timeout (proof generation can be slow)")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", 120*time.Second, "HTTP idle timeout")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Security flags
	cmd.Flags().StringVar(&cfg.JWTSecret, "jwt-secret", "", "HMAC secret for wallet tokens, at least 32 bytes")
	cmd.Flags().BoolVar(&cfg.EnableCORS, "enable-cors", true, "Enable CORS middleware")
	cmd.Flags().StringSliceVar(&cfg.CorsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")

	// Observability flags
	cmd.Flags().BoolVar(&cfg.EnablePprof, "enable-pprof", false, "Enable pprof endpoints (debug only)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().StringVar(&cfg.LogFile, "log-file", "", "Also write JSON logs to this rotated file")

	// TLS flags
	cmd.Flags().BoolVar(&cfg.EnableTLS, "enable-tls", false, "Enable TLS/HTTPS")
	cmd.Flags().StringVar(&cfg.CertFile, "cert-file", "", "TLS certificate file")
	cmd.Flags().StringVar(&cfg.KeyFile, "key-file", "", "TLS private key file")

	return cmd
}
