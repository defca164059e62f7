package notification

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/pkg/metrics"
)

// Sweeper periodically prunes expired banners from a Hub.
type Sweeper struct {
	hub      *Hub
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper creates a new banner sweeper
func NewSweeper(hub *Hub, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		hub:      hub,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *Sweeper) Start() {
	log.Info().Dur("interval", s.interval).Msg("Starting banner sweeper...")
	go s.loop()
}

// Stop stops the loop and waits for it to exit
func (s *Sweeper) Stop() {
	log.Info().Msg("Stopping banner sweeper...")
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) loop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	remaining := s.hub.Sweep()
	metrics.Loyalty().SetActiveBanners(remaining)
	log.Debug().Int("active", remaining).Msg("Swept expired banners")
}
