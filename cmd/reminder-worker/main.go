package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lulus/backend/internal/config"
	"github.com/lulus/backend/internal/roster"
	"github.com/lulus/backend/internal/services"
)

// The reminder worker runs next to the API server and mails the group about
// upcoming birthdays on a cron schedule.

const reminderWindowDays = 3

func main() {
	cfg := config.Load()

	var participants services.ParticipantService
	if cfg.MongoURI != "" {
		svc, err := services.NewMongoParticipantService(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect participant store: %v", err)
		}
		defer svc.Close(context.Background())
		participants = svc
	} else {
		svc, err := services.NewFileParticipantService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open participant store: %v", err)
		}
		participants = svc
	}

	mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.ReminderFrom, cfg.ReminderTo)

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderSchedule, func() {
		runReminders(participants, mailer)
	}); err != nil {
		log.Fatalf("Invalid REMINDER_SCHEDULE %q: %v", cfg.ReminderSchedule, err)
	}
	c.Start()
	log.Printf("reminder-worker running, schedule=%q", cfg.ReminderSchedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx := c.Stop()
	<-ctx.Done()
}

func runReminders(participants services.ParticipantService, mailer *services.SendGridMailer) {
	list, err := participants.List()
	if err != nil {
		log.Printf("[Reminder] roster load failed: %v", err)
		return
	}

	now := time.Now()
	sent := 0
	for _, p := range list {
		if p.Date.IsZero() {
			continue
		}
		days := roster.DaysUntilBirthday(p, now)
		if days > reminderWindowDays {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := mailer.SendBirthdayReminder(ctx, p, days)
		cancel()
		if err != nil {
			log.Printf("[Reminder] send failed: participant=%d err=%v", p.ID, err)
			continue
		}
		sent++
	}

	if next, ok := roster.NextBirthdayFrom(list, now); ok {
		log.Printf("[Reminder] run done: sent=%d next=%s (%s)", sent, next.Name, roster.FormatDayMonth(next.Date))
	} else {
		log.Printf("[Reminder] run done: sent=%d (empty roster)", sent)
	}
}
