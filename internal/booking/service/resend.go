package service

import (
	"context"
	"fmt"
	"log/slog"
)

// ResendNotifications re-broadcasts the new-job push for a booking to
// every eligible translator, as if it had just been posted.
func (s *Service) ResendNotifications(ctx context.Context, jobID int64) error {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return err
	}

	s.logger.Info("Resending booking notifications",
		slog.Int64("job_id", job.ID),
	)
	s.dispatcher.BroadcastNewJob(ctx, job, 0)
	return nil
}

// ResendSMSNotifications texts every eligible translator about the
// booking again and returns how many were reached. A job without a town
// falls back to the poster's city in the message.
func (s *Service) ResendSMSNotifications(ctx context.Context, jobID int64) (int, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	meta, err := s.store.MetaFor(ctx, job.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load poster meta for job %d: %w", jobID, err)
	}

	sent := s.dispatcher.SMSBroadcast(ctx, job, meta.City)
	s.logger.Info("Resent booking SMS notifications",
		slog.Int64("job_id", job.ID),
		slog.Int("sent", sent),
	)
	return sent, nil
}
