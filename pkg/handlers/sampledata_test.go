package handlers

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ecomlytics/ecomlytics-engine/pkg/ingest"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

func newSampleMux(t *testing.T) *http.ServeMux {
	t.Helper()
	handler, err := NewSampleDataHandler(zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create sample data handler: %v", err)
	}
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func TestSampleData_AllKinds(t *testing.T) {
	mux := newSampleMux(t)

	for _, kind := range []string{"orders", "customers", "inventory"} {
		t.Run(kind, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sample-data/"+kind, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
				t.Errorf("Content-Type = %q, want text/csv", ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sample_"+kind+".csv") {
				t.Errorf("Content-Disposition = %q, want sample_%s.csv attachment", cd, kind)
			}

			records, err := csv.NewReader(w.Body).ReadAll()
			if err != nil {
				t.Fatalf("failed to parse CSV body: %v", err)
			}
			if len(records) < 2 {
				t.Errorf("CSV rows = %d, want header plus data", len(records))
			}
		})
	}
}

// Sample files must ingest cleanly - they are the documented upload contract.
func TestSampleData_RoundTripsThroughIngest(t *testing.T) {
	mux := newSampleMux(t)

	for _, kind := range []models.EntityKind{models.KindOrders, models.KindCustomers, models.KindInventory} {
		t.Run(kind.String(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sample-data/"+kind.String(), nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			batch, err := ingest.Parse(kind, w.Body)
			if err != nil {
				t.Fatalf("sample %s failed ingestion: %v", kind, err)
			}
			if batch.Skipped != 0 {
				t.Errorf("sample %s skipped %d rows, want 0", kind, batch.Skipped)
			}
			if batch.Processed == 0 {
				t.Errorf("sample %s processed no rows", kind)
			}
		})
	}
}

func TestSampleData_SingularKindAccepted(t *testing.T) {
	mux := newSampleMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sample-data/order", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSampleData_InvalidKind(t *testing.T) {
	mux := newSampleMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sample-data/products", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
