// Package health exposes the /health and /ready HTTP endpoints every
// process serves alongside its core loop.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger is the liveness probe the checker depends on.
type Pinger interface {
	HealthCheck() error
}

type Checker struct {
	pinger Pinger
	logger *logrus.Logger
}

type Status struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewChecker(pinger Pinger, logger *logrus.Logger) *Checker {
	return &Checker{pinger: pinger, logger: logger}
}

func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := c.check(ctx)

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "healthy" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}

func (c *Checker) check(_ context.Context) Status {
	services := make(map[string]string)
	overall := "healthy"

	if err := c.pinger.HealthCheck(); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		overall = "unhealthy"
		c.logger.WithError(err).Error("database health check failed")
	} else {
		services["database"] = "healthy"
	}

	return Status{Status: overall, Timestamp: time.Now(), Services: services}
}

func (c *Checker) StartServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.Handler())
	mux.HandleFunc("/ready", c.Handler())

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.WithField("port", port).Info("starting health check server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.WithError(err).Error("health check server failed")
		}
	}()

	return server
}
