// Package ingest parses uploaded CSV batches into cleaned, typed records.
//
// Validation is two-tiered: a missing required column or an unreadable file
// rejects the whole batch, while individual rows with unparsable numeric or
// date fields are dropped and counted. A batch where every row fails is
// treated as a validation error rather than a silent empty upload.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// Required column sets per entity kind. These are the binding upload contract
// shared with the dashboard's sample files.
var requiredColumns = map[models.EntityKind][]string{
	models.KindOrders:    {"order_date", "customer_id", "product_id", "product_name", "category", "quantity", "price"},
	models.KindCustomers: {"customer_id", "name", "email", "join_date"},
	models.KindInventory: {"product_id", "product_name", "category", "current_stock", "reorder_point", "unit_cost"},
}

// Batch holds the cleaned rows of one upload. Exactly one of the row slices
// is populated, matching Kind.
type Batch struct {
	Kind      models.EntityKind
	Orders    []models.Order
	Customers []models.Customer
	Items     []models.InventoryItem

	// Processed is the number of rows that survived cleaning; Skipped counts
	// rows dropped for unparsable or missing required fields.
	Processed int
	Skipped   int
}

// Parse reads a CSV stream for the given entity kind, validates its header and
// returns the cleaned batch.
func Parse(kind models.EntityKind, r io.Reader) (*Batch, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, kind)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrEmptyBatch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := headerIndex(kind, header)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Kind: kind}
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Structurally broken row (bare quotes etc.) - drop it like any
			// other unparsable row.
			batch.Skipped++
			continue
		}
		rows++

		switch kind {
		case models.KindOrders:
			order, ok := cleanOrder(cols, record)
			if !ok {
				batch.Skipped++
				continue
			}
			batch.Orders = append(batch.Orders, order)
		case models.KindCustomers:
			customer, ok := cleanCustomer(cols, record)
			if !ok {
				batch.Skipped++
				continue
			}
			batch.Customers = append(batch.Customers, customer)
		case models.KindInventory:
			item, ok := cleanInventoryItem(cols, record)
			if !ok {
				batch.Skipped++
				continue
			}
			batch.Items = append(batch.Items, item)
		}
	}

	if rows == 0 {
		return nil, fmt.Errorf("%w: file has a header but no data rows", apperrors.ErrEmptyBatch)
	}

	switch kind {
	case models.KindCustomers:
		batch.Customers = dedupeCustomers(batch.Customers)
		batch.Processed = len(batch.Customers)
	case models.KindInventory:
		batch.Items = dedupeItems(batch.Items)
		batch.Processed = len(batch.Items)
	default:
		batch.Processed = len(batch.Orders)
	}

	if batch.Processed == 0 {
		return nil, fmt.Errorf("%w: all %d rows failed cleaning", apperrors.ErrEmptyBatch, rows)
	}

	return batch, nil
}

// headerIndex validates that every required column for the kind is present and
// returns a name -> position map. Column matching is case-insensitive and
// tolerant of surrounding whitespace and a UTF-8 BOM.
func headerIndex(kind models.EntityKind, header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name != "" {
			cols[name] = i
		}
	}

	for _, required := range requiredColumns[kind] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s file requires column %q", apperrors.ErrMissingColumn, kind, required)
		}
	}
	return cols, nil
}

func field(cols map[string]int, record []string, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func cleanOrder(cols map[string]int, record []string) (models.Order, bool) {
	orderDate, ok := parseDate(field(cols, record, "order_date"))
	if !ok {
		return models.Order{}, false
	}

	customerID := field(cols, record, "customer_id")
	productID := field(cols, record, "product_id")
	if customerID == "" || productID == "" {
		return models.Order{}, false
	}

	quantity, ok := parseIntField(field(cols, record, "quantity"), 0)
	if !ok {
		return models.Order{}, false
	}
	price, ok := parseFloatField(field(cols, record, "price"), 0)
	if !ok {
		return models.Order{}, false
	}

	// Never let negative inputs leak into revenue aggregates.
	quantity = clampInt(quantity)
	price = clampFloat(price)

	return models.Order{
		ID:          uuid.New(),
		OrderDate:   orderDate,
		CustomerID:  customerID,
		ProductID:   productID,
		ProductName: field(cols, record, "product_name"),
		Category:    field(cols, record, "category"),
		Quantity:    quantity,
		Price:       price,
		Total:       float64(quantity) * price,
	}, true
}

func cleanCustomer(cols map[string]int, record []string) (models.Customer, bool) {
	customerID := field(cols, record, "customer_id")
	name := field(cols, record, "name")
	email := field(cols, record, "email")
	if customerID == "" || name == "" || email == "" {
		return models.Customer{}, false
	}

	joinDate, ok := parseDate(field(cols, record, "join_date"))
	if !ok {
		return models.Customer{}, false
	}

	return models.Customer{
		ID:         uuid.New(),
		CustomerID: customerID,
		Name:       name,
		Email:      email,
		JoinDate:   joinDate,
	}, true
}

func cleanInventoryItem(cols map[string]int, record []string) (models.InventoryItem, bool) {
	productID := field(cols, record, "product_id")
	productName := field(cols, record, "product_name")
	if productID == "" || productName == "" {
		return models.InventoryItem{}, false
	}

	currentStock, ok := parseIntField(field(cols, record, "current_stock"), 0)
	if !ok {
		return models.InventoryItem{}, false
	}
	// Missing reorder points fall back to a conservative default of 10 units.
	reorderPoint, ok := parseIntField(field(cols, record, "reorder_point"), 10)
	if !ok {
		return models.InventoryItem{}, false
	}
	unitCost, ok := parseFloatField(field(cols, record, "unit_cost"), 0)
	if !ok {
		return models.InventoryItem{}, false
	}

	return models.InventoryItem{
		ID:           uuid.New(),
		ProductID:    productID,
		ProductName:  productName,
		Category:     field(cols, record, "category"),
		CurrentStock: clampInt(currentStock),
		ReorderPoint: clampInt(reorderPoint),
		UnitCost:     clampFloat(unitCost),
	}, true
}

// dedupeCustomers keeps exactly one row per customer_id, last-seen winning,
// preserving first-occurrence order.
func dedupeCustomers(customers []models.Customer) []models.Customer {
	seen := make(map[string]int, len(customers))
	out := customers[:0]
	for _, c := range customers {
		if idx, ok := seen[c.CustomerID]; ok {
			out[idx] = c
			continue
		}
		seen[c.CustomerID] = len(out)
		out = append(out, c)
	}
	return out
}

// dedupeItems keeps exactly one row per product_id, last-seen winning.
func dedupeItems(items []models.InventoryItem) []models.InventoryItem {
	seen := make(map[string]int, len(items))
	out := items[:0]
	for _, item := range items {
		if idx, ok := seen[item.ProductID]; ok {
			out[idx] = item
			continue
		}
		seen[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// dateLayouts are tried in order when coercing date strings. Timestamps are
// truncated to the calendar day in UTC.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseIntField coerces a numeric string to int, accepting float spellings
// like "3.0". Empty values take the default; unparsable values fail the row.
func parseIntField(value string, def int) (int, bool) {
	if value == "" {
		return def, true
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

func parseFloatField(value string, def float64) (float64, bool) {
	if value == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clampFloat(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
