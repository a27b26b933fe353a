package model

// MenuItem is a row in the static `menu_items` catalog.  Prices are whole
// currency units; the catalog has no business logic beyond grouped reads.
type MenuItem struct {
	ID          uint64 // menu_items.id
	Name        string // menu_items.name
	Category    string // menu_items.category
	Price       int    // menu_items.price
	Description string // menu_items.description
	Img         string // menu_items.img
}

// TableUsage mirrors the `table_usage` seat counter table.  The table is
// part of the schema but no operation currently populates or reads it.
type TableUsage struct {
	ID        uint64 // table_usage.id
	TableID   string // table_usage.table_id
	Branch    string // table_usage.branch
	Date      string // table_usage.date
	UsedSeats int    // table_usage.used_seats
}
