package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/caffinitas/barker/timeline"
)

// ErrInvalidConfig is returned by NewController for a Config that fails validation.
var ErrInvalidConfig = errors.New("invalid load generator config")

const (
	botNameFormat = "bot_%07d"
	ringFollowees = 10

	logMsgActivationFailed = "bot activation failed"
	logMsgRingWired        = "follow ring wired"
	logMsgRescheduleFailed = "rescheduling bot failed"
)

// Config is the shape of the generated load.
type Config struct {
	Threads  int
	Bots     int
	DelayMin time.Duration
	DelayMax time.Duration
}

// DefaultConfig returns 16 threads, 50 bots and pauses between 100ms and 2.5s.
func DefaultConfig() Config {
	return Config{
		Threads:  16,
		Bots:     50,
		DelayMin: 100 * time.Millisecond,
		DelayMax: 2500 * time.Millisecond,
	}
}

// Validate checks threads >= 1, bots >= 1 and 0 <= min <= max.
func (c Config) Validate() error {
	switch {
	case c.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalidConfig, c.Threads)
	case c.Bots < 1:
		return fmt.Errorf("%w: bots must be at least 1, got %d", ErrInvalidConfig, c.Bots)
	case c.DelayMin < 0:
		return fmt.Errorf("%w: min delay must not be negative, got %s", ErrInvalidConfig, c.DelayMin)
	case c.DelayMin > c.DelayMax:
		return fmt.Errorf("%w: min delay %s exceeds max delay %s", ErrInvalidConfig, c.DelayMin, c.DelayMax)
	}

	return nil
}

// Stats counts bot activations since the controller started.
type Stats struct {
	Bots        int   `json:"bots"`
	Activations int64 `json:"activations"`
	Failures    int64 `json:"failures"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for activation failures and startup messages.
func WithLogger(logger timeline.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTextSource replaces the random text source, e.g. with a seeded one.
func WithTextSource(text *TextSource) Option {
	return func(c *Controller) {
		if text != nil {
			c.text = text
		}
	}
}

// Controller owns the bots and keeps every one of them active until Close.
type Controller struct {
	cfg       Config
	store     Store
	scheduler *Scheduler
	bots      []*Bot
	text      *TextSource
	logger    timeline.Logger

	activations atomic.Int64
	failures    atomic.Int64
}

// NewController builds cfg.Bots bots named bot_0000001 and up, makes each one follow the next
// min(10, bots-1) bots of the ring, then schedules every bot once with a random delay.
//
// The follow calls are made synchronously before any bot runs. The bots run with ctx.
func NewController(ctx context.Context, store Store, cfg Config, options ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:   cfg,
		store: store,
		text:  NewTextSource(0),
	}

	for _, option := range options {
		option(c)
	}

	c.bots = make([]*Bot, 0, cfg.Bots)
	for i := 1; i <= cfg.Bots; i++ {
		c.bots = append(c.bots, NewBot(BotName(i), store, c.text))
	}

	for _, follow := range Ring(cfg.Bots) {
		if err := store.Follow(ctx, follow.Actor, follow.Target); err != nil {
			return nil, fmt.Errorf("wiring follow ring, %s -> %s: %w", follow.Actor, follow.Target, err)
		}
	}

	if c.logger != nil {
		c.logger.Info(logMsgRingWired, "bots", cfg.Bots, "followees_per_bot", followeeCount(cfg.Bots))
	}

	c.scheduler = NewScheduler(ctx, cfg.Threads)
	for _, bot := range c.bots {
		if err := c.scheduler.Schedule(c.activation(bot), c.nextDelay()); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// BotName returns the username of the i-th bot, counted from 1.
func BotName(i int) string {
	return fmt.Sprintf(botNameFormat, i)
}

// Follow is one edge of the follow graph.
type Follow struct {
	Actor  string
	Target string
}

// Ring returns the follow edges of the ring over bots bots: bot i follows the next min(10, bots-1)
// bots, wrapping from the last bot back to the first. No bot follows itself.
func Ring(bots int) []Follow {
	followees := followeeCount(bots)
	edges := make([]Follow, 0, bots*followees)

	for i := 1; i <= bots; i++ {
		j := i
		for f := 0; f < followees; f++ {
			j++
			if j > bots {
				j = 1
			}

			edges = append(edges, Follow{Actor: BotName(i), Target: BotName(j)})
		}
	}

	return edges
}

func followeeCount(bots int) int {
	return max(0, min(ringFollowees, bots-1))
}

func (c *Controller) activation(bot *Bot) Task {
	var task Task
	task = func(ctx context.Context) {
		c.activations.Add(1)

		if err := bot.Run(ctx); err != nil {
			c.failures.Add(1)
			if c.logger != nil {
				c.logger.Warn(logMsgActivationFailed, "bot", bot.Username(), "error", err.Error())
			}
		}

		if err := c.scheduler.Schedule(task, c.nextDelay()); err != nil && !errors.Is(err, ErrSchedulerClosed) {
			if c.logger != nil {
				c.logger.Error(logMsgRescheduleFailed, "bot", bot.Username(), "error", err.Error())
			}
		}
	}

	return task
}

// nextDelay draws a pause uniformly from [min, max), or exactly min when both are equal.
func (c *Controller) nextDelay() time.Duration {
	spread := c.cfg.DelayMax - c.cfg.DelayMin
	if spread <= 0 {
		return c.cfg.DelayMin
	}

	return c.cfg.DelayMin + time.Duration(rand.Int63n(int64(spread)))
}

// Bots returns the bots in name order.
func (c *Controller) Bots() []*Bot {
	return c.bots
}

// Stats returns the activation counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Bots:        len(c.bots),
		Activations: c.activations.Load(),
		Failures:    c.failures.Load(),
	}
}

// Close stops scheduling bots and waits for the running activations to finish.
func (c *Controller) Close() {
	c.scheduler.Close()
}
