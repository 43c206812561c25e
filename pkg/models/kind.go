package models

// EntityKind identifies one of the three uploadable dataset kinds.
type EntityKind string

const (
	KindOrders    EntityKind = "orders"
	KindCustomers EntityKind = "customers"
	KindInventory EntityKind = "inventory"
)

// String returns the wire name of the kind.
func (k EntityKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindOrders, KindCustomers, KindInventory:
		return true
	}
	return false
}
