package persistence

import (
	"fmt"
	"strings"

	"github.com/docflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// orderable columns accepted by applyFilter; anything else falls back to created_at
var orderableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"revision":   true,
}

// applyFilter applies pagination and ordering from a shared.Filter
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := filter.OrderBy
	if !orderableColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "desc"
	if strings.EqualFold(filter.OrderDir, "asc") {
		orderDir = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	return query
}
