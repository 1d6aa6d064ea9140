// Package bot implements the Telegram transport of the attendance bot:
// command handlers, reply keyboards and the access-control middleware.
// All attendance decisions are delegated to the tracker.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/vludko/workformat-bot/internal/metrics"
	"github.com/vludko/workformat-bot/internal/repository"
	"github.com/vludko/workformat-bot/internal/tracker"
)

const handlerTimeout = 5 * time.Second

// Rescheduler re-reads the trigger times from storage and reschedules
// the daily jobs. Implemented by the scheduler; bound after construction
// because the scheduler needs the bot as its notifier first.
type Rescheduler interface {
	Reconfigure(ctx context.Context) error
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	tracker      *tracker.Tracker
	store        repository.Store
	metrics      *metrics.Metrics
	stateManager *StateManager

	mu          sync.RWMutex
	rescheduler Rescheduler
}

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	trk *tracker.Tracker,
	store repository.Store,
	metrics *metrics.Metrics,
	token string,
	poller time.Duration,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{
		bot:          bot,
		log:          log,
		tracker:      trk,
		store:        store,
		metrics:      metrics,
		stateManager: NewStateManager(),
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// BindScheduler attaches the scheduler so the time-setting admin
// commands can apply a new trigger time without a restart.
func (b *Bot) BindScheduler(rescheduler Rescheduler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rescheduler = rescheduler
}

func (b *Bot) reconfigureScheduler(ctx context.Context) error {
	b.mu.RLock()
	rescheduler := b.rescheduler
	b.mu.RUnlock()

	if rescheduler == nil {
		return nil
	}

	return rescheduler.Reconfigure(ctx)
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Use(b.AccessMiddleware)

	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)

	// Admin routes; every handler checks the role itself.
	b.bot.Handle("/register", b.registerHandler)
	b.bot.Handle("/register_by_username", b.registerByUsernameHandler)
	b.bot.Handle("/register_by_id", b.registerByIDHandler)
	b.bot.Handle("/set_morning_time", b.setMorningTimeHandler)
	b.bot.Handle("/set_afternoon_time", b.setAfternoonTimeHandler)
}

// displayName builds a human-readable name from the Telegram profile.
func displayName(sender *telebot.User) string {
	name := sender.FirstName
	if sender.LastName != "" {
		name += " " + sender.LastName
	}
	if name == "" {
		name = sender.Username
	}
	if name == "" {
		name = "Пользователь"
	}

	return name
}
