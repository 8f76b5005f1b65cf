package app

import (
	"context"

	"nourish/internal/domain"
	"nourish/internal/validation"
)

// portion is a food reference resolved to its display name and nutrients.
type portion struct {
	name      string
	nutrients domain.Nutrients
}

// foodResolver turns a FoodRef into nutrients for a quantity, scoped to the
// caller for custom foods.
type foodResolver struct {
	foods  domain.FoodRepository
	custom domain.CustomFoodRepository
}

func (r foodResolver) resolve(ctx context.Context, userID int64, ref domain.FoodRef, quantity float64) (portion, error) {
	switch ref := ref.(type) {
	case domain.CatalogRef:
		f, err := r.foods.GetByID(ctx, ref.FoodID)
		if err != nil {
			return portion{}, notFound(err, "Food")
		}
		return portion{name: f.Name, nutrients: f.Portion(quantity)}, nil
	case domain.CustomRef:
		f, err := r.custom.Get(ctx, userID, ref.CustomFoodID)
		if err != nil {
			return portion{}, notFound(err, "Custom food")
		}
		return portion{name: f.Name, nutrients: f.Portion(quantity)}, nil
	}
	return portion{}, domain.ErrInvalidReference
}

// lineItems resolves every reference into a snapshotted line item.
func (r foodResolver) lineItems(ctx context.Context, userID int64, refs []validation.ItemRef) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(refs))
	for _, ir := range refs {
		p, err := r.resolve(ctx, userID, ir.Ref, ir.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.LineItem{
			Ref:       ir.Ref,
			Name:      p.name,
			Quantity:  ir.Quantity,
			Nutrients: p.nutrients.Rounded(),
		})
	}
	return items, nil
}
