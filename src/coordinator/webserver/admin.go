package webserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/torchfund/voteexec/src/coordinator/data"
)

type Admin struct {
	store  data.Store
	runner CycleRunner
}

func NewAdmin(store data.Store, runner CycleRunner) Admin {
	return Admin{store: store, runner: runner}
}

// RunCycle triggers a migration+resolution cycle outside the schedule.
// The cycle runs detached: chain confirmations can outlive the request,
// and the scheduler's locks keep it from interleaving with a scheduled
// run.
func (h Admin) RunCycle(c *gin.Context) {
	go h.runner.RunCycle(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

// ClearError puts an error-flagged campaign back under automatic
// resolution after operator review.
func (h Admin) ClearError(c *gin.Context) {
	id := c.Param("id")
	err := h.store.ClearError(c.Request.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "no error-flagged campaign with this id"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
