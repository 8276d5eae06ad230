package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"foresight-go/internal/cache"
	cachememory "foresight-go/internal/cache/memory"
	cacheredis "foresight-go/internal/cache/redis"
	"foresight-go/internal/contract"
	"foresight-go/internal/domain"
	"foresight-go/internal/fetcher"
	"foresight-go/internal/leaderboard"
	"foresight-go/internal/observability"
	"foresight-go/internal/pda"
	"foresight-go/internal/solana"
	"foresight-go/internal/storage"
	"foresight-go/internal/storage/memory"
	"foresight-go/internal/storage/migrations"
	pgstore "foresight-go/internal/storage/postgres"
	"foresight-go/internal/token"
	"foresight-go/internal/txn"
)

func main() {
	// .env is optional; flags and real env vars win
	_ = godotenv.Load()

	mode := flag.String("mode", "markets", "Command: markets, market, predict, predictions, stats, sync, or leaderboard")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("FORESIGHT_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("FORESIGHT_WS_ENDPOINT"), "Solana WebSocket endpoint for confirmation subscriptions (empty to poll)")
	programID := flag.String("program-id", os.Getenv("FORESIGHT_PROGRAM_ID"), "Prediction program ID (default: mainnet deployment)")
	marketAddr := flag.String("market", "", "Market address (market and predict modes)")
	userAddr := flag.String("user", "", "User wallet address (predictions and stats modes)")
	keypairPath := flag.String("keypair", os.Getenv("FORESIGHT_KEYPAIR"), "Path to a Solana CLI keypair file (predict mode)")
	outcome := flag.Uint("outcome", 0, "Outcome index to stake on (predict mode)")
	amount := flag.Uint64("amount", 0, "Stake amount in base units (predict mode)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("FORESIGHT_POSTGRES_DSN"), "PostgreSQL connection string (sync and leaderboard modes)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	limit := flag.Int("limit", 20, "Max leaderboard entries")
	minPredictions := flag.Uint("min-predictions", leaderboard.DefaultMinPredictions, "Leaderboard activity floor")
	tokenListURL := flag.String("token-list-url", os.Getenv("FORESIGHT_TOKEN_LIST_URL"), "Token list endpoint (default: Jupiter verified list)")
	redisAddr := flag.String("redis-addr", os.Getenv("FORESIGHT_REDIS_ADDR"), "Redis address for the token cache (empty for in-process cache)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger := newLogger(*logLevel)

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case "markets":
		err = runMarkets(ctx, logger, *rpcEndpoint, *programID)
	case "market":
		err = runMarket(ctx, logger, *rpcEndpoint, *programID, *marketAddr, *tokenListURL, *redisAddr)
	case "predict":
		err = runPredict(ctx, logger, predictConfig{
			rpcEndpoint:  *rpcEndpoint,
			wsEndpoint:   *wsEndpoint,
			programID:    *programID,
			market:       *marketAddr,
			outcome:      uint8(*outcome),
			amount:       *amount,
			keypairPath:  *keypairPath,
			tokenListURL: *tokenListURL,
			redisAddr:    *redisAddr,
		})
	case "predictions":
		err = runPredictions(ctx, logger, *rpcEndpoint, *programID, *userAddr)
	case "stats":
		err = runStats(ctx, logger, *rpcEndpoint, *programID, *userAddr)
	case "sync":
		err = runSync(ctx, logger, *rpcEndpoint, *programID, *postgresDSN, *useMemory)
	case "leaderboard":
		err = runLeaderboard(ctx, logger, *postgresDSN, *limit, uint32(*minPredictions))
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("command failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func serveMetrics(logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info().Str("addr", addr).Msg("starting metrics server")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// newFetcher builds the account fetcher shared by the read commands.
func newFetcher(logger zerolog.Logger, rpcEndpoint, programID string) (*fetcher.Fetcher, solana.RPCClient, error) {
	if rpcEndpoint == "" {
		return nil, nil, fmt.Errorf("--rpc-endpoint is required (or FORESIGHT_RPC_ENDPOINT)")
	}

	rpc := solana.NewHTTPClient(rpcEndpoint)

	opts := []fetcher.Option{fetcher.WithLogger(logger)}
	if programID != "" {
		opts = append(opts, fetcher.WithProgramID(programID))
	}
	return fetcher.New(rpc, opts...), rpc, nil
}

func runMarkets(ctx context.Context, logger zerolog.Logger, rpcEndpoint, programID string) error {
	f, _, err := newFetcher(logger, rpcEndpoint, programID)
	if err != nil {
		return err
	}

	markets, err := f.GetAllMarkets(ctx)
	if err != nil {
		return fmt.Errorf("scan markets: %w", err)
	}

	fmt.Printf("%-44s  %-8s  %-12s  %s\n", "ADDRESS", "STATUS", "POOL", "QUESTION")
	for _, m := range markets {
		status := "open"
		if m.Resolved {
			status = "resolved"
		} else if !m.Deadline.IsZero() && m.Deadline.Before(time.Now()) {
			status = "expired"
		}
		fmt.Printf("%-44s  %-8s  %-12d  %s\n", m.Address, status, m.TotalPool, m.Question)
	}
	fmt.Printf("\n%d markets\n", len(markets))
	return nil
}

// newTokenService builds the token resolver: Redis-backed when
// --redis-addr is set, in-process otherwise.
func newTokenService(ctx context.Context, logger zerolog.Logger, listURL, redisAddr string) (*token.Service, error) {
	var tc cache.TokenCache = cachememory.NewTokenCache()
	if redisAddr != "" {
		client, err := cacheredis.New(ctx, cacheredis.ClientConfig{Addr: redisAddr})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		tc = cacheredis.NewTokenCache(client)
	}
	return token.New(token.NewHTTPLister(listURL), tc, token.WithLogger(logger)), nil
}

func runMarket(ctx context.Context, logger zerolog.Logger, rpcEndpoint, programID, address, tokenListURL, redisAddr string) error {
	if address == "" {
		return fmt.Errorf("--market is required")
	}

	f, rpc, err := newFetcher(logger, rpcEndpoint, programID)
	if err != nil {
		return err
	}

	// Read-only facade: no wallet or signer needed for stats.
	client := contract.New(rpc, "", nil, contract.WithFetcher(f), contract.WithLogger(logger))

	market, err := client.GetMarket(ctx, address)
	if err != nil {
		return fmt.Errorf("get market: %w", err)
	}
	stats, err := client.CalculateMarketStats(ctx, address)
	if err != nil {
		return fmt.Errorf("calculate market stats: %w", err)
	}

	tokens, err := newTokenService(ctx, logger, tokenListURL, redisAddr)
	if err != nil {
		return err
	}
	stakeToken := market.TokenMint
	if info, err := tokens.GetByAddress(ctx, market.TokenMint); err == nil {
		stakeToken = fmt.Sprintf("%s (%s, %d decimals)", info.Symbol, info.Name, info.Decimals)
	} else {
		logger.Debug().Err(err).Str("mint", market.TokenMint).Msg("stake token not in token list")
	}

	fmt.Printf("Market:     %s\n", market.Address)
	fmt.Printf("Question:   %s\n", market.Question)
	fmt.Printf("Creator:    %s\n", market.Creator)
	fmt.Printf("Token:      %s\n", stakeToken)
	fmt.Printf("Deadline:   %s\n", market.Deadline.Format(time.RFC3339))
	fmt.Printf("Resolved:   %v\n", market.Resolved)
	if market.WinningOutcome != nil && int(*market.WinningOutcome) < len(market.Outcomes) {
		fmt.Printf("Winner:     %s\n", market.Outcomes[*market.WinningOutcome])
	}
	fmt.Printf("Pool:       %d\n", market.TotalPool)
	fmt.Printf("Predictions: %d\n", stats.TotalPredictions)
	for i, outcome := range market.Outcomes {
		var pct float64
		if i < len(stats.OutcomeDistribution) {
			pct = stats.OutcomeDistribution[i]
		}
		fmt.Printf("  %-20s %6.2f%%\n", outcome, pct)
	}
	return nil
}

type predictConfig struct {
	rpcEndpoint  string
	wsEndpoint   string
	programID    string
	market       string
	outcome      uint8
	amount       uint64
	keypairPath  string
	tokenListURL string
	redisAddr    string
}

// runPredict stakes on a market outcome with a local keypair. With a
// WS endpoint configured, confirmation waits on a signature
// subscription; otherwise it polls.
func runPredict(ctx context.Context, logger zerolog.Logger, cfg predictConfig) error {
	if cfg.market == "" {
		return fmt.Errorf("--market is required")
	}
	if cfg.amount == 0 {
		return fmt.Errorf("--amount is required")
	}
	if cfg.keypairPath == "" {
		return fmt.Errorf("--keypair is required (or FORESIGHT_KEYPAIR)")
	}

	key, wallet, err := txn.LoadKeypair(cfg.keypairPath)
	if err != nil {
		return err
	}

	f, rpc, err := newFetcher(logger, cfg.rpcEndpoint, cfg.programID)
	if err != nil {
		return err
	}

	managerOpts := []txn.ManagerOption{txn.WithLogger(logger)}
	if cfg.wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, cfg.wsEndpoint, nil)
		if err != nil {
			return fmt.Errorf("connect websocket: %w", err)
		}
		defer ws.Close()
		managerOpts = append(managerOpts, txn.WithWSConfirmation(ws))
	}

	client := contract.New(rpc, wallet, txn.LocalSigner(key),
		contract.WithFetcher(f),
		contract.WithLogger(logger),
		contract.WithManager(txn.NewManager(rpc, managerOpts...)))

	market, err := client.GetMarket(ctx, cfg.market)
	if err != nil {
		return fmt.Errorf("get market: %w", err)
	}
	if int(cfg.outcome) >= len(market.Outcomes) {
		return fmt.Errorf("outcome %d out of range: market has %d outcomes", cfg.outcome, len(market.Outcomes))
	}

	stakeToken := market.TokenMint
	if tokens, err := newTokenService(ctx, logger, cfg.tokenListURL, cfg.redisAddr); err == nil {
		if info, err := tokens.GetByAddress(ctx, market.TokenMint); err == nil {
			stakeToken = info.Symbol
		}
	}

	fmt.Printf("Staking %d %s on %q (%s)\n", cfg.amount, stakeToken, market.Outcomes[cfg.outcome], market.Question)

	sig, err := client.MakePrediction(ctx, domain.PredictionParams{
		Market:       cfg.market,
		OutcomeIndex: cfg.outcome,
		Amount:       cfg.amount,
	}, nil)
	if err != nil {
		return fmt.Errorf("make prediction: %w", err)
	}

	fmt.Printf("Signature:  %s\n", sig)
	return nil
}

func runPredictions(ctx context.Context, logger zerolog.Logger, rpcEndpoint, programID, user string) error {
	if user == "" {
		return fmt.Errorf("--user is required")
	}

	f, _, err := newFetcher(logger, rpcEndpoint, programID)
	if err != nil {
		return err
	}

	predictions, err := f.GetUserPredictions(ctx, user)
	if err != nil {
		return fmt.Errorf("scan predictions: %w", err)
	}

	fmt.Printf("%-44s  %-8s  %-12s  %-12s  %s\n", "MARKET", "OUTCOME", "AMOUNT", "REWARD", "STATUS")
	for _, p := range predictions {
		fmt.Printf("%-44s  %-8d  %-12d  %-12d  %s\n",
			p.Market, p.OutcomeIndex, p.Amount, p.PotentialReward, p.Status)
	}
	fmt.Printf("\n%d predictions\n", len(predictions))
	return nil
}

func runStats(ctx context.Context, logger zerolog.Logger, rpcEndpoint, programID, user string) error {
	if user == "" {
		return fmt.Errorf("--user is required")
	}

	f, rpc, err := newFetcher(logger, rpcEndpoint, programID)
	if err != nil {
		return err
	}

	client := contract.New(rpc, "", nil, contract.WithFetcher(f), contract.WithLogger(logger))

	stats, err := client.GetUserStats(ctx, user)
	if err != nil {
		return fmt.Errorf("get user stats: %w", err)
	}

	fmt.Printf("User:            %s\n", user)
	fmt.Printf("Predictions:     %d\n", stats.TotalPredictions)
	fmt.Printf("Winning:         %d\n", stats.WinningPredictions)
	fmt.Printf("Accuracy:        %.2f%%\n", stats.Accuracy)
	fmt.Printf("Total staked:    %d\n", stats.TotalStaked)
	fmt.Printf("Total winnings:  %d\n", stats.TotalWinnings)
	return nil
}

// runSync scans the program and persists market and profile snapshots.
func runSync(ctx context.Context, logger zerolog.Logger, rpcEndpoint, programID, postgresDSN string, useMemory bool) error {
	f, rpc, err := newFetcher(logger, rpcEndpoint, programID)
	if err != nil {
		return err
	}

	var (
		marketStore  storage.MarketSnapshotStore
		profileStore storage.ProfileSnapshotStore
	)
	if useMemory {
		marketStore = memory.NewMarketSnapshotStore()
		profileStore = memory.NewProfileSnapshotStore()
	} else {
		if postgresDSN == "" {
			return fmt.Errorf("--postgres-dsn is required for sync (use --use-memory for a dry run)")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		marketStore = pgstore.NewMarketSnapshotStore(pool)
		profileStore = pgstore.NewProfileSnapshotStore(pool)
	}

	slot, err := rpc.GetSlot(ctx)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	scannedAt := time.Now().UTC()

	markets, err := f.GetAllMarkets(ctx)
	if err != nil {
		return fmt.Errorf("scan markets: %w", err)
	}

	users := make(map[string]struct{})
	storedMarkets := 0
	for _, m := range markets {
		snap := &domain.MarketSnapshot{Market: m, Slot: slot, ScannedAt: scannedAt}
		if err := marketStore.Insert(ctx, snap); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				logger.Debug().Str("market", m.Address).Int64("slot", slot).Msg("snapshot already stored")
				continue
			}
			return fmt.Errorf("store market snapshot %s: %w", m.Address, err)
		}
		storedMarkets++

		predictions, err := f.GetMarketPredictions(ctx, m.Address)
		if err != nil {
			return fmt.Errorf("scan predictions for %s: %w", m.Address, err)
		}
		for _, p := range predictions {
			users[p.User] = struct{}{}
		}
	}
	observability.RecordSnapshotStored("market", storedMarkets)

	storedProfiles := 0
	for user := range users {
		profile, err := f.GetUserProfile(ctx, user)
		if err != nil {
			if errors.Is(err, fetcher.ErrNotFound) {
				continue
			}
			return fmt.Errorf("fetch profile %s: %w", user, err)
		}
		snap := &domain.ProfileSnapshot{UserProfile: *profile, Slot: slot, ScannedAt: scannedAt}
		if err := profileStore.Insert(ctx, snap); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("store profile snapshot %s: %w", user, err)
		}
		storedProfiles++
	}
	observability.RecordSnapshotStored("profile", storedProfiles)
	observability.DefaultMetrics.LastSuccessfulSync.SetToCurrentTime()

	logger.Info().
		Int64("slot", slot).
		Int("markets", storedMarkets).
		Int("profiles", storedProfiles).
		Str("program", programOrDefault(programID)).
		Msg("sync complete")
	return nil
}

func runLeaderboard(ctx context.Context, logger zerolog.Logger, postgresDSN string, limit int, minPredictions uint32) error {
	if postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required for leaderboard")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	svc := leaderboard.New(pgstore.NewProfileSnapshotStore(pool),
		leaderboard.WithMinPredictions(minPredictions),
		leaderboard.WithLogger(logger))

	entries, err := svc.Top(ctx, limit)
	if err != nil {
		return fmt.Errorf("build leaderboard: %w", err)
	}

	fmt.Printf("%-5s  %-44s  %-9s  %-7s  %s\n", "RANK", "USER", "ACCURACY", "WINS", "WINNINGS")
	for _, e := range entries {
		fmt.Printf("%-5d  %-44s  %7.2f%%  %3d/%-3d  %d\n",
			e.Rank, e.User, e.Accuracy, e.WinningPredictions, e.TotalPredictions, e.TotalWinnings)
	}
	return nil
}

func programOrDefault(programID string) string {
	if programID != "" {
		return programID
	}
	return pda.ProgramID
}
