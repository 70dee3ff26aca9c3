package services

import (
	"context"
	"errors"
	"time"
)

const pingTimeout = 3 * time.Second

// Pinger probes the server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchConnectivity pings p every interval and sends the result on the
// returned channel whenever it differs from the previous one. The first
// probe runs immediately and is always sent. The channel is closed when
// ctx is done.
func WatchConnectivity(ctx context.Context, p Pinger, interval time.Duration) <-chan bool {
	events := make(chan bool, 1)

	go func() {
		defer close(events)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last, first = false, true
		probe := func() bool {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			online := p.Ping(pctx) == nil
			cancel()

			if !first && online == last {
				return true
			}
			first, last = false, online
			select {
			case events <- online:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !probe() {
			return
		}
		for {
			select {
			case <-ticker.C:
				if !probe() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}

// Watch applies connectivity events to the service until ctx is done or
// events is closed.
func (s *DataService) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case online, ok := <-events:
			if !ok {
				return
			}
			s.SetOnline(online)
		case <-ctx.Done():
			return
		}
	}
}

// RunAutoSync drains the sync queue every AutoSyncInterval while the
// service is online in backend mode. It returns when ctx is done.
func (s *DataService) RunAutoSync(ctx context.Context) {
	if s.opts.AutoSyncInterval <= 0 || s.opts.StorageMode != ModeBackend {
		return
	}

	ticker := time.NewTicker(s.opts.AutoSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.IsOnline() {
				continue
			}
			report, err := s.ProcessSyncQueue(ctx)
			switch {
			case errors.Is(err, ErrSyncInProgress), errors.Is(err, ErrOffline):
			case err != nil:
				s.logger.Error(ctx, "auto sync failed", "error", err)
			case report.Total() > 0:
				s.logger.Info(ctx, "auto sync finished", "replayed", report.Replayed,
					"requeued", report.Requeued, "dropped", report.Dropped)
			}
		case <-ctx.Done():
			return
		}
	}
}
