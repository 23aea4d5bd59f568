package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/torchfund/voteexec/src/coordinator/components/ingest"
	"github.com/torchfund/voteexec/src/coordinator/components/tally"
	"github.com/torchfund/voteexec/src/coordinator/config"
	"github.com/torchfund/voteexec/src/coordinator/data"
)

// ChainReader exposes the read-only chain call the request boundary
// uses.
type ChainReader interface {
	GetVoteResult(ctx context.Context, proposalID common.Hash) (bool, error)
}

// VoterVerifier gates vote submissions on signature and token balance.
type VoterVerifier interface {
	VerifyVoter(ctx context.Context, message, signature, voter string) (bool, error)
}

// CycleRunner triggers one migration+resolution cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

func New(cfg config.Config, store data.Store, gate *ingest.Gate, tallySvc *tally.Service, chain ChainReader, verifier VoterVerifier, runner CycleRunner) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, store, gate, tallySvc, chain, verifier, runner)
	return g
}

func attachRoutes(r *gin.Engine, cfg config.Config, store data.Store, gate *ingest.Gate, tallySvc *tally.Service, chain ChainReader, verifier VoterVerifier, runner CycleRunner) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	campH := NewCampaigns(store, gate, tallySvc, chain)
	voteH := NewVotes(tallySvc, verifier)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	api := r.Group("/api/votes")
	{
		api.POST("/create", campH.Create)
		api.POST("/vote", voteH.Cast)
		api.GET("/pending", campH.Pending)
		api.GET("/queued", campH.Queued)
		api.GET("/:id", campH.Get)
	}

	admin := r.Group("/api/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		adminH := NewAdmin(store, runner)
		admin.POST("/run", adminH.RunCycle)
		admin.POST("/clear/:id", adminH.ClearError)
	}
}
