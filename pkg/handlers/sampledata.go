package handlers

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ecomlytics/ecomlytics-engine/pkg/ingest"
)

//go:embed samples.yaml
var sampleCatalogYAML []byte

// SampleDataHandler serves downloadable sample CSV files so a fresh
// dashboard can be exercised without real data. The catalog ships embedded
// in the binary.
type SampleDataHandler struct {
	catalog map[string][][]string
	logger  *zap.Logger
}

// NewSampleDataHandler creates a SampleDataHandler from the embedded catalog.
func NewSampleDataHandler(logger *zap.Logger) (*SampleDataHandler, error) {
	var catalog map[string][][]string
	if err := yaml.Unmarshal(sampleCatalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse sample data catalog: %w", err)
	}
	return &SampleDataHandler{catalog: catalog, logger: logger}, nil
}

// RegisterRoutes registers the sample data handler's routes on the given mux.
// Sample downloads are public: they exist to try the product out.
func (h *SampleDataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sample-data/{kind}", h.SampleData)
}

// SampleData handles GET /api/sample-data/{kind} requests, returning a CSV
// attachment for "orders", "customers" or "inventory".
func (h *SampleDataHandler) SampleData(w http.ResponseWriter, r *http.Request) {
	kind, err := ingest.ParseKind(r.PathValue("kind"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid data type %q", r.PathValue("kind")))
		return
	}

	rows, ok := h.catalog[kind.String()]
	if !ok {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid data type %q", kind))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sample_%s.csv", kind))
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		h.logger.Error("Failed to write sample data response", zap.Error(err))
	}
}
