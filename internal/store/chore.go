package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(row scanner) (*model.Chore, error) {
	var c model.Chore
	var dueDate, completedAt sql.NullTime
	var categoryID, completedBy sql.NullString
	var completed, pending int

	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &dueDate, &c.AssignedTo,
		&c.Priority, &c.Recurring, &categoryID, &c.CreatedBy, &c.CreatedAt,
		&completed, &completedAt, &completedBy, &pending,
	)
	if err != nil {
		return nil, err
	}

	c.DueDate = timePtr(dueDate)
	c.CategoryID = stringPtr(categoryID)
	c.CreatedAt = c.CreatedAt.UTC()
	c.Completed = completed != 0
	c.CompletedAt = timePtr(completedAt)
	c.CompletedBy = stringPtr(completedBy)
	c.PendingApproval = pending != 0
	return &c, nil
}

const choreCols = `id, title, description, due_date, assigned_to, priority, recurring, category_id, created_by, created_at, completed, completed_at, completed_by, pending_approval`

// Create inserts a fully formed chore. The caller assigns the id and timestamps.
func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	_, err := s.db.Exec(
		`INSERT INTO chores (`+choreCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, nullTime(c.DueDate), c.AssignedTo,
		c.Priority, c.Recurring, nullString(c.CategoryID), c.CreatedBy, c.CreatedAt.UTC(),
		boolInt(c.Completed), nullTime(c.CompletedAt), nullString(c.CompletedBy), boolInt(c.PendingApproval),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *ChoreStore) GetByID(id string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) query(q string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// List returns every chore in creation order.
func (s *ChoreStore) List() ([]model.Chore, error) {
	chores, err := s.query(`SELECT ` + choreCols + ` FROM chores ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

func (s *ChoreStore) ListByCompleted(completed bool) ([]model.Chore, error) {
	chores, err := s.query(
		`SELECT `+choreCols+` FROM chores WHERE completed = ? ORDER BY created_at ASC, rowid ASC`,
		boolInt(completed),
	)
	if err != nil {
		return nil, fmt.Errorf("list chores by status: %w", err)
	}
	return chores, nil
}

func (s *ChoreStore) ListByAssignee(assignee string) ([]model.Chore, error) {
	chores, err := s.query(
		`SELECT `+choreCols+` FROM chores WHERE assigned_to = ? ORDER BY created_at ASC, rowid ASC`,
		assignee,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores by assignee: %w", err)
	}
	return chores, nil
}

// Update writes the editable fields of c. Completion fields are left alone.
func (s *ChoreStore) Update(c model.Chore) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, due_date = ?, assigned_to = ?, priority = ?, recurring = ?, category_id = ? WHERE id = ?`,
		c.Title, c.Description, nullTime(c.DueDate), c.AssignedTo, c.Priority, c.Recurring, nullString(c.CategoryID), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(c.ID)
}

// SetCompletion writes the completion fields in one statement so the table
// checks see a consistent row.
func (s *ChoreStore) SetCompletion(id string, completedAt *time.Time, completedBy *string, pendingApproval bool) (*model.Chore, error) {
	completed := completedAt != nil
	_, err := s.db.Exec(
		`UPDATE chores SET completed = ?, completed_at = ?, completed_by = ?, pending_approval = ? WHERE id = ?`,
		boolInt(completed), nullTime(completedAt), nullString(completedBy), boolInt(pendingApproval), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set chore completion: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
