package ingest

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// ParseKind resolves a user-supplied entity-kind selector to an EntityKind.
// Both singular and plural spellings are accepted ("order" and "orders"),
// since the dashboard and curl users disagree about which reads better.
func ParseKind(value string) (models.EntityKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty kind selector", apperrors.ErrUnknownKind)
	}

	switch inflection.Singular(normalized) {
	case "order":
		return models.KindOrders, nil
	case "customer":
		return models.KindCustomers, nil
	case "inventory":
		return models.KindInventory, nil
	}
	return "", fmt.Errorf("%w: %q (expected orders, customers, or inventory)", apperrors.ErrUnknownKind, value)
}
