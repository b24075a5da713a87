package handlers

import (
	"log"
	"net/http"

	"hotspotpay/internal/common"
	"hotspotpay/internal/jobs/background"
	"hotspotpay/internal/services"

	"github.com/labstack/echo/v4"
)

// JobStatusProvider is implemented by background.JobScheduler
type JobStatusProvider interface {
	GetJobStatus() []background.JobStatus
}

type JobHandlers struct {
	reaper services.ReaperService
	jobs   JobStatusProvider
}

func NewJobHandlers(reaper services.ReaperService, jobs JobStatusProvider) *JobHandlers {
	return &JobHandlers{reaper: reaper, jobs: jobs}
}

// RunReaper handles POST /api/admin/reaper/run
//
//	@Summary	Time out stale pending transactions now
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	map[string]int64
//	@Router		/api/admin/reaper/run [post]
func (h *JobHandlers) RunReaper(c echo.Context) error {
	count, err := h.reaper.ExpireStale(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: manual reaper run failed: %v", err)
		return common.SendServerError(c, "Failed to expire stale transactions")
	}

	if sub, ok := common.GetAdminSubjectFromContext(c.Request().Context()); ok {
		log.Printf("Manual reaper run by %s timed out %d transactions", sub, count)
	}
	return c.JSON(http.StatusOK, map[string]int64{
		"timed_out": count,
	})
}

// GetJobStatus handles GET /api/admin/jobs
func (h *JobHandlers) GetJobStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": h.jobs.GetJobStatus(),
	})
}
