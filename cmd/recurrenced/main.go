package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-recurrence/internal/config"
	"task-recurrence/internal/repository"
	"task-recurrence/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}
	defer sqlDB.Close()

	ruleRepo := repository.NewRuleRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)

	clock := service.SystemClock{}
	generator := service.NewGeneratorService(ruleRepo, occurrenceRepo, clock)
	sweeper := service.NewSweepService(ruleRepo, occurrenceRepo, generator, clock, cfg.HorizonWeeks)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.GenerateAt, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		created, err := sweeper.GenerateAll(jobCtx)
		if err != nil {
			log.Printf("generation sweep: %v", err)
			return
		}
		log.Printf("generation sweep: %d occurrences created", created)
	}); err != nil {
		log.Fatalf("schedule generation sweep: %v", err)
	}

	if cfg.RetentionDays > 0 {
		if _, err := scheduler.ScheduleInterval(24*time.Hour, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			purged, err := sweeper.PurgeHistory(jobCtx, cfg.RetentionDays)
			if err != nil {
				log.Printf("retention pass: %v", err)
				return
			}
			if purged > 0 {
				log.Printf("retention pass: %d occurrences purged", purged)
			}
		}); err != nil {
			log.Fatalf("schedule retention pass: %v", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Recurrence daemon started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}
