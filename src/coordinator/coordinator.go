package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/torchfund/voteexec/src/coordinator/components/ingest"
	"github.com/torchfund/voteexec/src/coordinator/components/migrate"
	"github.com/torchfund/voteexec/src/coordinator/components/quorum"
	"github.com/torchfund/voteexec/src/coordinator/components/scheduler"
	"github.com/torchfund/voteexec/src/coordinator/components/settle"
	"github.com/torchfund/voteexec/src/coordinator/components/tally"
	"github.com/torchfund/voteexec/src/coordinator/config"
	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/webserver"
	"github.com/torchfund/voteexec/src/shared/evm"
)

func main() {
	// Connect to database first
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "dev:test@tcp(localhost:3306)/voteexec"
	}
	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	cfg := config.Load(db)
	rdb := data.MustRedis(cfg.RedisURL)

	if cfg.ExecutorAddress == "" || cfg.ProtocolKey == "" || cfg.SignMessage == "" {
		log.Fatalf("vote_executor_address, protocol_key and sign_message must be configured")
	}

	protocolSigner, err := evm.NewSignerFromHex(cfg.ProtocolKey)
	if err != nil {
		log.Fatalf("protocol key: %v", err)
	}

	chain, err := evm.NewClient(
		cfg.RPCURL,
		common.HexToAddress(cfg.ExecutorAddress),
		common.HexToAddress(cfg.VoteTokenAddress),
		cfg.ChainID,
		protocolSigner,
		cfg.ConfirmTimeout,
	)
	if err != nil {
		log.Fatalf("chain client: %v", err)
	}
	defer chain.Close()

	// Validator set: the protocol's own key plus configured validators.
	signers := []quorum.Signer{protocolSigner}
	for _, key := range cfg.ValidatorKeys {
		s, err := evm.NewSignerFromHex(key)
		if err != nil {
			log.Fatalf("validator key: %v", err)
		}
		signers = append(signers, s)
	}
	agg, err := quorum.New(signers, cfg.QuorumThreshold)
	if err != nil {
		log.Fatalf("quorum: %v", err)
	}
	log.Printf("validator set of %d, quorum threshold %d", agg.Size(), cfg.QuorumThreshold)

	store := data.NewSQLStore(db)
	gate := ingest.New(store)
	migrator := migrate.New(store, chain, cfg.BatchSize, cfg.RegistrationDelay, cfg.VotingWindow)
	tallySvc := tally.New(store)
	settler := settle.New(store, chain, agg, evm.ResultHash(cfg.SignMessage))

	ctx, cancel := context.WithCancel(context.Background())

	sched := scheduler.New(migrator, settler, rdb, cfg.CycleInterval)
	go sched.Run(ctx)

	router := webserver.New(cfg, store, gate, tallySvc, chain, chain, sched)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("Vote executor coordinator listening on %s (cycle every %s, batch %d)", cfg.Port, cfg.CycleInterval, cfg.BatchSize)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
