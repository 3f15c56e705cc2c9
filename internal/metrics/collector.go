// Package metrics exposes the fleet state and the live feed counters to Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"guardly-cli/pkg/models"
)

// Source is the read side of the REST client the collector scrapes.
type Source interface {
	GetCameras(ctx context.Context) ([]models.Camera, error)
	GetUsers(ctx context.Context) ([]models.User, error)
}

var (
	upDesc = prometheus.NewDesc(
		"guardly_up", "Was the last scrape successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"guardly_scrape_duration_seconds", "Time taken to scrape API.", nil, nil,
	)
	cameraCountDesc = prometheus.NewDesc(
		"guardly_cameras_total", "Total cameras grouped by status.", []string{"status"}, nil,
	)
	cameraOnlineDesc = prometheus.NewDesc(
		"guardly_camera_online", "Backend-reported connectivity (1=online).", []string{"id", "location", "ip"}, nil,
	)
	userCountDesc = prometheus.NewDesc(
		"guardly_users_total", "Total users grouped by role.", []string{"role"}, nil,
	)
)

// Collector scrapes cameras and users on every Prometheus collection.
type Collector struct {
	API     Source
	Timeout time.Duration
	Logger  *slog.Logger

	mu sync.Mutex
}

func NewCollector(api Source, logger *slog.Logger) *Collector {
	return &Collector{API: api, Timeout: 10 * time.Second, Logger: logger}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- cameraCountDesc
	ch <- cameraOnlineDesc
	ch <- userCountDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	var (
		cams  []models.Camera
		users []models.User
	)
	// Each read reports its own failure; one failing does not cancel the other.
	var g errgroup.Group
	var camErr, userErr error
	g.Go(func() error {
		cams, camErr = c.API.GetCameras(ctx)
		return nil
	})
	g.Go(func() error {
		users, userErr = c.API.GetUsers(ctx)
		return nil
	})
	_ = g.Wait()

	success := 1.0
	if camErr == nil {
		statusCounts := make(map[string]float64)
		for _, cam := range cams {
			online := 0.0
			if cam.Online {
				online = 1.0
			}
			ip := cam.IPAddress
			if ip == "" {
				ip = "unknown"
			}
			ch <- prometheus.MustNewConstMetric(cameraOnlineDesc, prometheus.GaugeValue, online,
				strconv.FormatInt(cam.ID, 10), cam.Location, ip)

			st := string(cam.Status)
			if st == "" {
				st = "unknown"
			}
			statusCounts[st]++
		}
		for st, cnt := range statusCounts {
			ch <- prometheus.MustNewConstMetric(cameraCountDesc, prometheus.GaugeValue, cnt, st)
		}
	} else {
		success = 0.0
		c.logger().Warn("scrape cameras failed", "error", camErr)
	}

	if userErr == nil {
		roles := make(map[string]float64)
		for _, u := range users {
			r := string(u.Role)
			if r == "" {
				r = "unknown"
			}
			roles[r]++
		}
		for r, cnt := range roles {
			ch <- prometheus.MustNewConstMetric(userCountDesc, prometheus.GaugeValue, cnt, r)
		}
	} else {
		success = 0.0
		c.logger().Warn("scrape users failed", "error", userErr)
	}

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
