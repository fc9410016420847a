// services/scheduler.go
package services

import (
	"log"
	"time"

	"prompt-guess-system/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *ChallengeService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate scheduled challenges whose time has come
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var challenges []models.Challenge
			now := time.Now()
			err := s.DB.Where("status = ? AND publish_at <= ?", models.ChallengeStatusScheduled, now).
				Find(&challenges).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, ch := range challenges {
				ch.Status = models.ChallengeStatusActive
				ch.PublishAt = nil
				if err := s.DB.Save(&ch).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate challenge %s: %v", ch.ID, err)
				} else {
					log.Printf("✅ Auto-activated challenge: %s", ch.Title)
				}
			}
		}),
	)
}
