package service

import (
	"context"
	"fmt"
	"time"

	"lineswipe/config"
	"lineswipe/models"
)

// configuredTierLimits builds the tier allowance table from configuration
func configuredTierLimits() models.TierLimits {
	cfg := config.Get()
	return models.TierLimits{
		Free: cfg.FreeTierLimit,
		Plus: cfg.PlusTierLimit,
		Pro:  cfg.ProTierLimit,
	}
}

// loadQuotaForUpdate returns the user's quota row under a row lock, creating
// it on first contact and applying the lazy period reset in memory. wasReset
// tells the caller whether the reset still needs persisting; a reset is only
// durable once the surrounding transaction commits an Update.
func loadQuotaForUpdate(ctx context.Context, uow UnitOfWork, userID int64, now time.Time) (quota *models.UserQuota, wasReset bool, err error) {
	quota, err = uow.UserQuotaRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load quota: %w", err)
	}

	if quota == nil {
		fresh := &models.UserQuota{
			UserID: userID,
			Tier:   models.QuotaTierFree,
		}
		fresh.Reset(now)

		if err := uow.UserQuotaRepository().Create(ctx, fresh); err != nil {
			return nil, false, fmt.Errorf("failed to create quota: %w", err)
		}

		// Re-read under lock: a concurrent first swipe may have won the insert
		quota, err = uow.UserQuotaRepository().GetForUpdate(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload quota: %w", err)
		}
		if quota == nil {
			return nil, false, fmt.Errorf("quota for user %d missing after create", userID)
		}
	}

	if quota.NeedsReset(now) {
		quota.Reset(now)
		wasReset = true
	}

	return quota, wasReset, nil
}

// reserveQuota consumes one swipe from the user's allowance. This is the
// single entry point for quota consumption: only first-time line engagements
// call it, and only inside the admission transaction, so the reservation
// rolls back with everything else when admission fails. Returns
// ErrQuotaExceeded without writing anything when the allowance is spent.
func reserveQuota(ctx context.Context, uow UnitOfWork, userID int64, now time.Time) error {
	quota, _, err := loadQuotaForUpdate(ctx, uow, userID, now)
	if err != nil {
		return err
	}

	if quota.Exhausted(configuredTierLimits()) {
		return ErrQuotaExceeded
	}

	quota.SwipesUsed++
	if err := uow.UserQuotaRepository().Update(ctx, quota); err != nil {
		return fmt.Errorf("failed to reserve quota: %w", err)
	}

	return nil
}
