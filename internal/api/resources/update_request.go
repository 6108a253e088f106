package resources

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/db/models"
	"github.com/spiget/spiget-api/internal/query"
	"github.com/spiget/spiget-api/internal/telemetry"
)

// updateRequestBody carries the caller's facet selection. Pointers
// distinguish "absent" from "explicitly false": every facet defaults to
// included unless the caller says false.
type updateRequestBody struct {
	Versions *bool `json:"versions"`
	Updates  *bool `json:"updates"`
	Reviews  *bool `json:"reviews"`
	Delete   *bool `json:"delete"`
}

func facet(p *bool) bool {
	return p == nil || *p
}

// RequestUpdate queues a refresh of a resource for the ingestion pipeline.
// Only the master node writes to the queue; mirrors delegate. At most one
// pending request per resource is kept, best-effort: the duplicate check and
// the insert are separate statements, so two simultaneous submissions can
// slip through as two rows, which the pipeline tolerates.
func (h *Handler) RequestUpdate(c *gin.Context) {
	if !h.cfg.Server.IsMaster() {
		telemetry.UpdateRequestsTotal.WithLabelValues("delegated").Inc()
		h.delegateToMaster(c)
		return
	}

	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		telemetry.UpdateRequestsTotal.WithLabelValues("invalid").Inc()
		badRequest(c, "invalid resource id")
		return
	}

	var body updateRequestBody
	// An empty or malformed body means all facets default to included.
	_ = c.ShouldBindJSON(&body)

	existing, err := h.updateRequests.FindPending(c.Request.Context(), models.UpdateRequestTypeResource, id)
	if err != nil {
		internalError(c, "find pending update request", err)
		return
	}
	if existing != nil {
		telemetry.UpdateRequestsTotal.WithLabelValues("duplicate").Inc()
		badRequest(c, "Duplicate Update Request")
		return
	}

	req := &models.UpdateRequest{
		Type:        models.UpdateRequestTypeResource,
		RequestedID: id,
		Versions:    facet(body.Versions),
		Updates:     facet(body.Updates),
		Reviews:     facet(body.Reviews),
		DeleteOld:   facet(body.Delete),
	}
	if err := h.updateRequests.Create(c.Request.Context(), req); err != nil {
		internalError(c, "create update request", err)
		return
	}

	telemetry.UpdateRequestsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{
		"msg":      "update requested",
		"resource": id,
		"versions": req.Versions,
		"updates":  req.Updates,
		"reviews":  req.Reviews,
		"delete":   req.DeleteOld,
	})
}
