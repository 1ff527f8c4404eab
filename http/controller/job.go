package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/jobs"
	"github.com/velora/catalog-service/utils"
)

// snapshotSink buffers published snapshots for one streaming client. A slow
// client loses intermediate snapshots, never the latest one: Send makes room
// by dropping the oldest buffered entry, so the terminal snapshot is always
// the last thing drained.
type snapshotSink struct {
	ch chan jobs.Snapshot
}

func newSnapshotSink() *snapshotSink {
	return &snapshotSink{ch: make(chan jobs.Snapshot, 16)}
}

func (s *snapshotSink) Send(snapshot jobs.Snapshot) error {
	for {
		select {
		case s.ch <- snapshot:
			return nil
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (ctrl *Controller) GetJob(c *gin.Context) {
	ctx := c.Request.Context()

	job, ok := ctrl.resolveOwnedJob(c)
	if !ok {
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Fetched job %s (status=%s)", job.ID, job.Status)
	utils.JSON200(c, gin.H{"job": job})
}

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	status := c.Query("status")
	jobList, err := ctrl.Repository.JobRepo.FindByOwner(ctx, ownerID, status)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to list jobs: %v", err)
		utils.JSON500(c, "Failed to list jobs")
		return
	}

	utils.JSON200(c, gin.H{"jobs": jobList})
}

func (ctrl *Controller) ListActiveJobs(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	jobList, err := ctrl.Repository.JobRepo.FindActiveByOwner(ctx, ownerID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to list active jobs: %v", err)
		utils.JSON500(c, "Failed to list active jobs")
		return
	}

	utils.JSON200(c, gin.H{"jobs": jobList})
}

// StreamJob streams job progress as newline-delimited JSON. The client gets
// the current snapshot immediately, then one line per published update until
// the job reaches a terminal status or the client disconnects.
func (ctrl *Controller) StreamJob(c *gin.Context) {
	ctx := c.Request.Context()

	job, ok := ctrl.resolveOwnedJob(c)
	if !ok {
		return
	}

	sink := newSnapshotSink()
	ctrl.Notifier.Register(job.ID, sink)
	defer ctrl.Notifier.Remove(job.ID, sink)

	// Re-read after registering: an update landing between the ownership
	// check and the registration is covered by this snapshot, everything
	// after it arrives through the sink.
	if current, err := ctrl.Store.GetByID(ctx, job.ID); err == nil {
		job = current
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	encoder := json.NewEncoder(c.Writer)

	initial := jobs.SnapshotOf(job)
	if err := encoder.Encode(initial); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
	if initial.Terminal() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Stream client disconnected from job %s", job.ID)
			return
		case snapshot := <-sink.ch:
			if err := encoder.Encode(snapshot); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			if snapshot.Terminal() {
				return
			}
		}
	}
}

func (ctrl *Controller) resolveOwnedJob(c *gin.Context) (*entity.Job, bool) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return nil, false
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid job ID format")
		return nil, false
	}

	job, err := ctrl.Store.GetByID(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		utils.JSON404(c, "Job not found")
		return nil, false
	}
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to load job %s: %v", jobID, err)
		utils.JSON500(c, "Failed to load job")
		return nil, false
	}
	if job.OwnerID != ownerID {
		utils.JSON404(c, "Job not found")
		return nil, false
	}

	return job, true
}
