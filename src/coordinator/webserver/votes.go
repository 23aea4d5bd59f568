package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/torchfund/voteexec/src/coordinator/components/tally"
	"github.com/torchfund/voteexec/src/coordinator/data"
)

type Votes struct {
	tally    *tally.Service
	verifier VoterVerifier
}

func NewVotes(tallySvc *tally.Service, verifier VoterVerifier) Votes {
	return Votes{tally: tallySvc, verifier: verifier}
}

func (h Votes) Cast(c *gin.Context) {
	var req struct {
		CampaignID   string `json:"campaignId" binding:"required"`
		Vote         *bool  `json:"vote" binding:"required"`
		VoterAddress string `json:"voterAddress" binding:"required"`
		Message      string `json:"message" binding:"required"`
		Signature    string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	ok, err := h.verifier.VerifyVoter(c.Request.Context(), req.Message, req.Signature, req.VoterAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"err": "voter not eligible"})
		return
	}

	err = h.tally.RecordVote(c.Request.Context(), req.CampaignID, req.VoterAddress, *req.Vote)
	if errors.Is(err, data.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "campaign not found or not in pending state"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Vote recorded successfully"})
}
