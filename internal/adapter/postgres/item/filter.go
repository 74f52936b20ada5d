package item

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// normalizeFilter applies defaults and clamps pagination values.
func normalizeFilter(f *domain.ItemFilter) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// filterConditions translates an ItemFilter into squirrel predicates.
// All set fields combine conjunctively.
func filterConditions(f domain.ItemFilter) sq.And {
	var conds sq.And

	if f.Search != nil && *f.Search != "" {
		pattern := "%" + *f.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"i.serial_number": pattern},
			sq.ILike{"i.asset_tag": pattern},
			sq.ILike{"i.location": pattern},
		})
	}
	if f.Status != nil {
		conds = append(conds, sq.Eq{"i.status": f.Status.String()})
	}
	if f.Kind != nil {
		conds = append(conds, sq.Eq{"i.kind": f.Kind.String()})
	}
	if f.ProductID != nil {
		conds = append(conds, sq.Eq{"i.product_id": *f.ProductID})
	}
	if f.ContainerID != nil {
		conds = append(conds, sq.Eq{"i.container_id": *f.ContainerID})
	}

	return conds
}
