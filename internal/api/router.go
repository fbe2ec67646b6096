package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"clippa/internal/clip"
	"clippa/internal/jobs"
	"clippa/internal/logging"
)

// Submitter accepts clip requests.
type Submitter interface {
	Submit(ctx context.Context, req clip.Request) (string, error)
}

// JobReader reads job records.
type JobReader interface {
	Get(ctx context.Context, id string) (*jobs.Job, error)
}

// Options configures the router.
type Options struct {
	Pipeline      Submitter
	Jobs          JobReader
	AllowedOrigin string
	Logger        *slog.Logger
}

// NewRouter constructs a gin engine with registered routes.
func NewRouter(opts Options) *gin.Engine {
	logger := logging.NewComponentLogger(opts.Logger, "api")
	h := &handlers{pipeline: opts.Pipeline, jobs: opts.Jobs, logger: logger}

	r := gin.New()
	r.Use(recovery(logger), requestID(), accessLog(logger), corsPolicy(opts.AllowedOrigin, logger))

	r.GET("/", h.root)
	group := r.Group("/api")
	group.GET("/ping", h.ping)
	group.POST("/clip", h.createClip)
	group.GET("/clip/:id", h.getClip)
	return r
}
