package domain

// EntityType identifies which marketplace collection a field definition
// applies to. The set is closed: adding a collection means adding a constant
// and a table mapping here, never a runtime registration.
type EntityType string

const (
	EntityTypeVendors    EntityType = "vendors"
	EntityTypeServices   EntityType = "services"
	EntityTypeCategories EntityType = "categories"
	EntityTypeUsers      EntityType = "users"
	EntityTypeOrders     EntityType = "orders"
	EntityTypeReviews    EntityType = "reviews"
	EntityTypeShorts     EntityType = "shorts"
)

// entityTables maps each entity type to the table owning its value bag
// column. Lookups outside this map are rejected so table names never come
// from caller input.
var entityTables = map[EntityType]string{
	EntityTypeVendors:    "vendors",
	EntityTypeServices:   "services",
	EntityTypeCategories: "categories",
	EntityTypeUsers:      "users",
	EntityTypeOrders:     "orders",
	EntityTypeReviews:    "reviews",
	EntityTypeShorts:     "shorts",
}

// Valid reports whether the entity type is one of the known collections.
func (et EntityType) Valid() bool {
	_, ok := entityTables[et]
	return ok
}

// Table returns the entity table owning the value bag column for this type.
func (et EntityType) Table() (string, bool) {
	table, ok := entityTables[et]
	return table, ok
}

// EntityTypes returns all known entity types in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypeVendors,
		EntityTypeServices,
		EntityTypeCategories,
		EntityTypeUsers,
		EntityTypeOrders,
		EntityTypeReviews,
		EntityTypeShorts,
	}
}
