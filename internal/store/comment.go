package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

type CommentStore struct {
	db *sql.DB
}

func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row scanner) (*model.Comment, error) {
	var c model.Comment
	var edited int
	var editedAt sql.NullTime

	err := row.Scan(&c.ID, &c.ChoreID, &c.UserID, &c.UserName, &c.UserAvatar, &c.Text, &c.Timestamp, &edited, &editedAt)
	if err != nil {
		return nil, err
	}
	c.Timestamp = c.Timestamp.UTC()
	c.Edited = edited != 0
	c.EditedAt = timePtr(editedAt)
	return &c, nil
}

const commentCols = `id, chore_id, user_id, user_name, user_avatar, text, timestamp, edited, edited_at`

func (s *CommentStore) Create(c model.Comment) (*model.Comment, error) {
	_, err := s.db.Exec(
		`INSERT INTO comments (`+commentCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ChoreID, c.UserID, c.UserName, c.UserAvatar, c.Text, c.Timestamp.UTC(), boolInt(c.Edited), nullTime(c.EditedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *CommentStore) GetByID(id string) (*model.Comment, error) {
	row := s.db.QueryRow(`SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *CommentStore) UpdateText(id, text string, editedAt time.Time) (*model.Comment, error) {
	_, err := s.db.Exec(
		`UPDATE comments SET text = ?, edited = 1, edited_at = ? WHERE id = ?`,
		text, editedAt.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.GetByID(id)
}

func (s *CommentStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentStore) list(q string, args ...any) ([]model.Comment, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// ListByChore returns a chore's comments, oldest first.
func (s *CommentStore) ListByChore(choreID string) ([]model.Comment, error) {
	comments, err := s.list(
		`SELECT `+commentCols+` FROM comments WHERE chore_id = ? ORDER BY timestamp ASC, rowid ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentStore) List() ([]model.Comment, error) {
	comments, err := s.list(`SELECT ` + commentCols + ` FROM comments ORDER BY timestamp ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
