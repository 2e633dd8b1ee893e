package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/notify"
	"github.com/noah-isme/bps-routine/pkg/jobs"
)

// NotificationService renders duty notices and hands them to a sender.
type NotificationService struct {
	sender notify.Sender
	school string
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService. A nil sender logs notices.
func NewNotificationService(sender notify.Sender, school string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = notify.NewLogSender(logger)
	}
	return &NotificationService{sender: sender, school: school, logger: logger}
}

// Handle is the jobs.Handler for duty notice jobs.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(notify.DutyNotice)
	if !ok {
		s.logger.Error("unexpected notice payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.Send(ctx, notice)
}

// Send delivers one notice. Substitutes without an email address are skipped.
func (s *NotificationService) Send(ctx context.Context, notice notify.DutyNotice) error {
	if notice.School == "" {
		notice.School = s.school
	}
	msg, err := notice.Render()
	if err != nil {
		return fmt.Errorf("render duty notice: %w", err)
	}
	if !msg.HasRecipients() {
		s.logger.Info("duty notice skipped, substitute has no email",
			zap.String("absence_id", notice.AbsenceID),
			zap.String("substitute", notice.Substitute.Code),
		)
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("duty notice sent",
		zap.String("absence_id", notice.AbsenceID),
		zap.String("substitute", notice.Substitute.Code),
		zap.Stringer("slot", notice.Entry.Start),
	)
	return nil
}
