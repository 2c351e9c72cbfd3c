// Package http is the reference certification backend: the collaborator
// the extension's protocol core talks to for levels 3-5 and for Level-2
// validation. Production deployments point the client elsewhere; this
// server backs development, the CLI, and the end-to-end tests with real
// wire behavior.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LexatoBR/lexato-extension-sub005/internal/config"
	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/db"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/ratelimit"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine
	log   *zap.SugaredLogger
	now   func() time.Time

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
	levelDuration     time.Duration
	signingKey        []byte
}

func NewServer(cfg config.Config, store *db.Store, log *zap.SugaredLogger) (*Server, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:               cfg,
		store:             store,
		r:                 r,
		log:               log,
		now:               time.Now,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		levelDuration:     cfg.BackendLevelDuration,
		signingKey:        []byte(cfg.ValidationSigningKey),
	}

	if cfg.RateLimitRequests > 0 {
		if cfg.RedisAddr != "" {
			limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, s.now)
			if err != nil {
				return nil, err
			}
			s.rateLimiter = limiter
		} else {
			s.rateLimiter = ratelimit.NewMemoryLimiter(s.now, 0)
		}
	}

	s.routes()
	return s, nil
}

// WithClock swaps the server clock; the progression engine derives level
// statuses from submission time, so tests drive it with a fake clock.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)

	cert := s.r.Group("/certification")
	cert.Use(s.rateLimit())
	cert.POST("/submit", s.handleSubmit)
	cert.GET("/status/:captureId", s.handleStatus)
	cert.GET("/ws/:captureId", s.handleWS)

	s.r.POST("/pcc/validate", s.rateLimit(), s.handleValidate)
}

func (s *Server) Handler() *gin.Engine { return s.r }

func (s *Server) Run() error {
	s.log.Infow("certification backend listening", "addr", s.cfg.HTTPAddr)
	return s.r.Run(s.cfg.HTTPAddr)
}
