package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

// ErrDefaultCategory is returned when deleting one of the seeded categories.
var ErrDefaultCategory = errors.New("default categories cannot be deleted")

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(row scanner) (*model.Category, error) {
	var c model.Category
	var isDefault int
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &isDefault, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.IsDefault = isDefault != 0
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

const categoryCols = `id, name, icon, color, is_default, created_at`

func (s *CategoryStore) Create(c model.Category) (*model.Category, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO categories (`+categoryCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Icon, c.Color, boolInt(c.IsDefault), c.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *CategoryStore) GetByID(id string) (*model.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// List returns defaults first, then custom categories by name.
func (s *CategoryStore) List() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryCols + ` FROM categories ORDER BY is_default DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

func (s *CategoryStore) Update(id, name, icon, color string) (*model.Category, error) {
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?`,
		name, icon, color, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a custom category. Chores referencing it keep no category.
func (s *CategoryStore) Delete(id string) error {
	c, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if c.IsDefault {
		return ErrDefaultCategory
	}
	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
