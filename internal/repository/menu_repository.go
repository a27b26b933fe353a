package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// MenuRepo provides read access to the static 'menu_items' catalog plus a
// one-time seed used when the table is empty.
type MenuRepo struct{ DB *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{DB: db} }

// MenuEntry is a single dish as returned by the catalog endpoints.
type MenuEntry struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	Desc  string `json:"desc"`
	Img   string `json:"img"`
}

// MenuCategory groups dishes under their category for display.
type MenuCategory struct {
	Category string      `json:"category"`
	Items    []MenuEntry `json:"items"`
}

// ListGrouped returns the whole catalog grouped by category, preserving
// the category order of the table.
func (r *MenuRepo) ListGrouped(ctx context.Context) ([]MenuCategory, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT name, category, price, description, img FROM menu_items ORDER BY category, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MenuCategory, 0)
	index := make(map[string]int)
	for rows.Next() {
		var name, category string
		var price int
		var desc, img sql.NullString
		if err := rows.Scan(&name, &category, &price, &desc, &img); err != nil {
			return nil, err
		}
		entry := MenuEntry{Name: name, Price: price, Desc: desc.String, Img: img.String}
		i, ok := index[category]
		if !ok {
			index[category] = len(out)
			out = append(out, MenuCategory{Category: category, Items: []MenuEntry{entry}})
			continue
		}
		out[i].Items = append(out[i].Items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of catalog rows.
func (r *MenuRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM menu_items").Scan(&n)
	return n, err
}

// Seed bulk-inserts catalog items.  Passing an empty slice has no effect.
func (r *MenuRepo) Seed(ctx context.Context, items []model.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	query := "INSERT INTO menu_items (name, category, price, description, img) VALUES "
	args := make([]interface{}, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, it.Name, it.Category, it.Price, it.Description, it.Img)
	}
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

// SeedDefault populates the catalog with the default menu when the table
// is empty.  It is safe to call on every start.
func (r *MenuRepo) SeedDefault(ctx context.Context) error {
	n, err := r.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	return r.Seed(ctx, defaultMenu)
}

var defaultMenu = []model.MenuItem{
	{Name: "Classic ramen", Category: "Ramen", Price: 1800, Description: "Rich broth, noodles, egg and greens", Img: "/static/images/ramen.png"},
	{Name: "Cheese ramen", Category: "Ramen", Price: 2000, Description: "Ramen with cheese and a spice level of your choice", Img: "/static/images/ramen_cheese.png"},
	{Name: "Spicy beef ramen", Category: "Ramen", Price: 2200, Description: "Hot broth and tender beef in house sauce", Img: "/static/images/ramen_beef.png"},
	{Name: "Philadelphia roll", Category: "Rolls", Price: 2400, Description: "Salmon, cream cheese, avocado, rice, nori", Img: "/static/images/roll_phila.png"},
	{Name: "California roll", Category: "Rolls", Price: 2300, Description: "Crab meat, cucumber, avocado, tobiko", Img: "/static/images/roll_california.png"},
	{Name: "Cola", Category: "Drinks", Price: 500, Description: "Classic 0.33 l", Img: "/static/images/cola.png"},
	{Name: "Still water", Category: "Drinks", Price: 300, Description: "Plain mineral water", Img: "/static/images/water_still.png"},
	{Name: "Matcha bubble tea", Category: "Bubble tea", Price: 1600, Description: "Matcha with milk and tapioca", Img: "/static/images/bubble_matcha.png"},
	{Name: "Strawberry mochi", Category: "Desserts", Price: 800, Description: "Rice cake with strawberry filling", Img: "/static/images/mochi_strawberry.png"},
	{Name: "Japanese cheesecake", Category: "Desserts", Price: 1200, Description: "Light airy dessert with a creamy taste", Img: "/static/images/cheesecake.png"},
}
