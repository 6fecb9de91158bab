package ledger

import (
	"context"
	"fmt"
	"strings"

	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"
)

// PlanCatalog manages plan templates. Contracts keep their own snapshot, so
// edits here only affect future purchases.
type PlanCatalog struct {
	*core
}

func (p *PlanCatalog) CreatePlan(ctx context.Context, adminID string, in models.PlanInput) (*models.Plan, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, p.fail("create_plan", withMessage(ErrInvalidInput, utils.ValidationSummary(err)))
	}
	if !validAmount(in.MinAmount) {
		return nil, p.fail("create_plan", ErrInvalidAmount)
	}

	var plan *models.Plan
	err := p.mutate(ctx, "create_plan", nil, func(tx store.Store) ([]events.Event, error) {
		if err := p.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		pl := &models.Plan{
			Name:          utils.SanitizeString(in.Name),
			Ticker:        strings.ToUpper(utils.SanitizeString(in.Ticker)),
			Description:   utils.SanitizeString(in.Description),
			MinAmount:     in.MinAmount,
			DurationWeeks: in.DurationWeeks,
			FeePercentage: in.FeePercentage,
			TargetGrowth:  in.TargetGrowth,
			Risk:          in.Risk,
			Region:        in.Region,
			IsActive:      true,
			CreatedAt:     p.now(),
		}
		if err := tx.CreatePlan(ctx, pl); err != nil {
			return nil, storeErr(err, "plan")
		}
		if err := p.audit(ctx, tx, adminID, "Create Project", pl.ID, pl.Name); err != nil {
			return nil, err
		}
		plan = pl
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan applies only the fields set in u, validated before the merge.
func (p *PlanCatalog) UpdatePlan(ctx context.Context, adminID, planID string, u models.PlanUpdate) (*models.Plan, error) {
	if err := utils.ValidateStruct(u); err != nil {
		return nil, p.fail("update_plan", withMessage(ErrInvalidInput, utils.ValidationSummary(err)))
	}
	if u.MinAmount != nil && !validAmount(*u.MinAmount) {
		return nil, p.fail("update_plan", ErrInvalidAmount)
	}

	var plan *models.Plan
	err := p.mutate(ctx, "update_plan", nil, func(tx store.Store) ([]events.Event, error) {
		if err := p.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		pl, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return nil, storeErr(err, "plan")
		}
		u.Apply(pl)
		pl.Ticker = strings.ToUpper(pl.Ticker)
		if err := tx.SavePlan(ctx, pl); err != nil {
			return nil, storeErr(err, "plan")
		}
		if err := p.audit(ctx, tx, adminID, "Update Project", pl.ID, pl.Name); err != nil {
			return nil, err
		}
		plan = pl
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// TogglePlan opens or closes a plan for purchase. Existing contracts run on.
func (p *PlanCatalog) TogglePlan(ctx context.Context, adminID, planID string) (*models.Plan, error) {
	var plan *models.Plan
	err := p.mutate(ctx, "toggle_plan", nil, func(tx store.Store) ([]events.Event, error) {
		if err := p.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		pl, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return nil, storeErr(err, "plan")
		}
		pl.IsActive = !pl.IsActive
		if err := tx.SavePlan(ctx, pl); err != nil {
			return nil, storeErr(err, "plan")
		}
		state := "closed"
		if pl.IsActive {
			state = "opened"
		}
		if err := p.audit(ctx, tx, adminID, "Toggle Project", pl.ID, fmt.Sprintf("%s %s", pl.Name, state)); err != nil {
			return nil, err
		}
		plan = pl
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *PlanCatalog) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	plans, err := p.store.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, p.fail("list_plans", storeErr(err, "plans"))
	}
	return plans, nil
}

func (p *PlanCatalog) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	pl, err := p.store.GetPlan(ctx, id)
	if err != nil {
		return nil, p.fail("get_plan", storeErr(err, "plan"))
	}
	return pl, nil
}
