package webserver

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/torchfund/voteexec/src/coordinator/components/ingest"
	"github.com/torchfund/voteexec/src/coordinator/components/tally"
	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
	"github.com/torchfund/voteexec/src/shared/evm"
)

type Campaigns struct {
	store data.Store
	gate  *ingest.Gate
	tally *tally.Service
	chain ChainReader
}

func NewCampaigns(store data.Store, gate *ingest.Gate, tallySvc *tally.Service, chain ChainReader) Campaigns {
	return Campaigns{store: store, gate: gate, tally: tallySvc, chain: chain}
}

func (h Campaigns) Create(c *gin.Context) {
	var req struct {
		Title        string `json:"title" binding:"required"`
		Description  string `json:"description" binding:"required"`
		TargetAmount string `json:"targetAmount" binding:"required"`
		Deadline     int64  `json:"deadline" binding:"required,gt=0"`
		Owner        string `json:"owner" binding:"required"`
		ImageURL     string `json:"imageUrl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !common.IsHexAddress(req.Owner) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "valid owner address is required"})
		return
	}
	if wei, err := evm.ToWei(req.TargetAmount); err != nil || wei.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "valid target amount is required"})
		return
	}

	ack, err := h.gate.Submit(c.Request.Context(), types.CampaignFields{
		Owner:        req.Owner,
		Title:        req.Title,
		Description:  req.Description,
		Image:        req.ImageURL,
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline,
	})
	if errors.Is(err, data.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"err": err.Error(), "proposalId": ack.ProposalID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "error adding campaign to queue"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposalId": ack.ProposalID, "status": types.StatusQueued})
}

func (h Campaigns) Queued(c *gin.Context) {
	campaigns, err := h.store.ListQueued(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "error fetching campaigns"})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h Campaigns) Pending(c *gin.Context) {
	campaigns, err := h.store.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "error fetching campaigns"})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h Campaigns) Get(c *gin.Context) {
	id := c.Param("id")
	campaign, err := h.store.GetPending(c.Request.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "campaign not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "error fetching campaign"})
		return
	}

	counts, err := h.tally.Tally(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "error computing tally"})
		return
	}

	resp := gin.H{"campaign": campaign, "tally": counts}
	// Best effort: the advisory view still renders when the chain is
	// unreachable.
	if passed, err := h.chain.GetVoteResult(c.Request.Context(), common.HexToHash(campaign.ProposalID)); err == nil {
		resp["currentVoteStatus"] = gin.H{"passed": passed}
	}
	c.JSON(http.StatusOK, resp)
}
