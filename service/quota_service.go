package service

import (
	"context"
	"fmt"
	"time"

	"lineswipe/events"
	"lineswipe/models"
)

type quotaService struct {
	uowFactory UnitOfWorkFactory
}

// NewQuotaService creates a new quota service
func NewQuotaService(uowFactory UnitOfWorkFactory) QuotaService {
	return &quotaService{
		uowFactory: uowFactory,
	}
}

func (s *quotaService) GetQuota(ctx context.Context, userID int64) (*models.QuotaStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Apply the lazy period reset so a stale row is never reported
	quota, wasReset, err := loadQuotaForUpdate(ctx, uow, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if wasReset {
		if err := uow.UserQuotaRepository().Update(ctx, quota); err != nil {
			return nil, fmt.Errorf("failed to persist quota reset: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	limits := configuredTierLimits()
	limit, limited := limits.For(quota.Tier)
	remaining, unlimited := quota.Remaining(limits)

	status := &models.QuotaStatus{
		Tier:       quota.Tier,
		SwipesUsed: quota.SwipesUsed,
		Remaining:  remaining,
		Unlimited:  unlimited,
		ResetAt:    quota.ResetAt,
	}
	if limited {
		status.Limit = limit
	}

	return status, nil
}

func (s *quotaService) SetTier(ctx context.Context, userID int64, tier models.QuotaTier) error {
	if !tier.IsValid() {
		return fmt.Errorf("invalid quota tier %q", tier)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Tier changes take effect mid-period: consumption and reset date carry over
	quota, _, err := loadQuotaForUpdate(ctx, uow, userID, time.Now().UTC())
	if err != nil {
		return err
	}

	oldTier := quota.Tier
	quota.Tier = tier
	if err := uow.UserQuotaRepository().Update(ctx, quota); err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}

	if oldTier != tier {
		uow.EventBus().Publish(events.TierChangedEvent{
			UserID:  userID,
			OldTier: oldTier,
			NewTier: tier,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
