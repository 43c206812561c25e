package ingest

import (
	"errors"
	"testing"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  models.EntityKind
	}{
		{"orders", models.KindOrders},
		{"order", models.KindOrders},
		{"Orders", models.KindOrders},
		{"  ORDERS  ", models.KindOrders},
		{"customers", models.KindCustomers},
		{"customer", models.KindCustomers},
		{"inventory", models.KindInventory},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if err != nil {
				t.Fatalf("ParseKind(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseKind_Unknown(t *testing.T) {
	for _, input := range []string{"", "products", "forecast", "csv"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseKind(input)
			if !errors.Is(err, apperrors.ErrUnknownKind) {
				t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", input, err)
			}
		})
	}
}
