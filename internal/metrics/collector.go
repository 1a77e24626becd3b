package metrics

import (
	"context"
	"log"
	"time"

	"landsmon/internal/alert"
	"landsmon/internal/notify"
)

// Collector polls the usage source on a background interval, runs an
// evaluation cycle, and fans qualifying events out to the webhook channels.
type Collector struct {
	source     Source
	registry   *alert.Registry
	evaluator  *alert.Evaluator
	dispatcher *notify.Dispatcher
	channels   *notify.Channels
	interval   time.Duration
	ticker     *time.Ticker
	done       chan struct{}
}

func NewCollector(source Source, registry *alert.Registry, evaluator *alert.Evaluator, dispatcher *notify.Dispatcher, channels *notify.Channels, interval time.Duration) *Collector {
	return &Collector{
		source:     source,
		registry:   registry,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		channels:   channels,
		interval:   interval,
	}
}

// Start begins the background ticker. A non-positive interval disables the
// collector entirely.
func (c *Collector) Start() {
	if c.interval <= 0 {
		log.Println("Metrics collector disabled (poll interval is 0)")
		return
	}
	c.ticker = time.NewTicker(c.interval)
	c.done = make(chan struct{})
	go c.run()
	log.Printf("Metrics collector started (%s interval)", c.interval)
}

// Stop halts the background ticker.
func (c *Collector) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	if c.done != nil {
		close(c.done)
	}
}

func (c *Collector) run() {
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C:
			c.Cycle(context.Background())
		}
	}
}

// Cycle fetches one snapshot, evaluates all thresholds, and dispatches the
// new events. Failures are logged and never abort the loop.
func (c *Collector) Cycle(ctx context.Context) {
	snapshot, err := c.source.Fetch(ctx)
	if err != nil {
		log.Printf("ERROR: fetch usage snapshot: %v", err)
		return
	}

	events, err := c.evaluator.Evaluate(ctx, snapshot)
	if err != nil {
		log.Printf("ERROR: evaluate thresholds: %v", err)
		return
	}
	if len(events) == 0 {
		return
	}

	channels, err := c.channels.List(ctx)
	if err != nil {
		log.Printf("ERROR: list channels: %v", err)
		return
	}

	for _, ev := range events {
		targets := channels
		if t, err := c.registry.Get(ctx, ev.ThresholdID); err == nil && !t.NotifyEmail {
			targets = notify.WithoutEmailChannels(targets)
		}
		results := c.dispatcher.TriggerChannels(ctx, notify.EventAlertTriggered, notify.AlertEventData(ev), targets)
		for id, res := range results {
			if !res.Success {
				log.Printf("ERROR: deliver alert %s to channel %s: %s", ev.ID, id, res.Error)
			}
		}
	}
}
