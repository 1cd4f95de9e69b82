package db

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"wishlist/models"
)

const (
	usersTable = "users"
	listsTable = "lists"
	itemsTable = "items"
)

var (
	listColumns = []string{"id", "username", "name", "public_id", "created_at"}
	itemColumns = []string{"id", "wishlist_id", "name", "price", "link", "notes", "photo_url", "purchased", "created_at"}
)

// Store is the document store adapter over the users, lists and items
// collections. Records are returned in insertion order.
type Store struct {
	db *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) FindUser(ctx context.Context, username string) (*models.User, error) {
	query, args, err := sq.Select("username", "password_hash", "created_at").
		From(usersTable).
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	var u models.User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, wrapError(err, "find user")
	}
	return &u, nil
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query, args, err := sq.Insert(usersTable).
		Columns("username", "password_hash", "created_at").
		Values(u.Username, u.PasswordHash, u.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return wrapError(err, "insert user")
}

func (s *Store) FindLists(ctx context.Context, username string) ([]models.Wishlist, error) {
	query, args, err := sq.Select(listColumns...).
		From(listsTable).
		Where(sq.Eq{"username": username}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "find lists")
	}
	defer rows.Close()

	lists := make([]models.Wishlist, 0)
	for rows.Next() {
		var l models.Wishlist
		if err := rows.Scan(&l.ID, &l.Username, &l.Name, &l.PublicID, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan list")
		}
		lists = append(lists, l)
	}
	return lists, errors.Wrap(rows.Err(), "iterate lists")
}

func (s *Store) findList(ctx context.Context, where sq.Eq) (*models.Wishlist, error) {
	query, args, err := sq.Select(listColumns...).From(listsTable).Where(where).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	var l models.Wishlist
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&l.ID, &l.Username, &l.Name, &l.PublicID, &l.CreatedAt)
	if err != nil {
		return nil, wrapError(err, "find list")
	}
	return &l, nil
}

func (s *Store) FindList(ctx context.Context, id string) (*models.Wishlist, error) {
	return s.findList(ctx, sq.Eq{"id": id})
}

func (s *Store) FindListByPublicID(ctx context.Context, publicID string) (*models.Wishlist, error) {
	return s.findList(ctx, sq.Eq{"public_id": publicID})
}

// InsertList assigns an id when the record has none.
func (s *Store) InsertList(ctx context.Context, l *models.Wishlist) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	query, args, err := sq.Insert(listsTable).
		Columns(listColumns...).
		Values(l.ID, l.Username, l.Name, l.PublicID, l.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return wrapError(err, "insert list")
}

func (s *Store) FindItems(ctx context.Context, wishlistID string) ([]models.Item, error) {
	query, args, err := sq.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"wishlist_id": wishlistID}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "find items")
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, errors.Wrap(rows.Err(), "iterate items")
}

func (s *Store) FindItem(ctx context.Context, id string) (*models.Item, error) {
	query, args, err := sq.Select(itemColumns...).From(itemsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	it, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapError(err, "find item")
	}
	return it, nil
}

// InsertItem assigns an id when the record has none.
func (s *Store) InsertItem(ctx context.Context, it *models.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	query, args, err := sq.Insert(itemsTable).
		Columns(itemColumns...).
		Values(it.ID, it.WishlistID, it.Name, it.Price, it.Link, it.Notes, it.PhotoURL, it.Purchased, it.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return wrapError(err, "insert item")
}

// UpdateItem overwrites the editable fields of an existing item.
func (s *Store) UpdateItem(ctx context.Context, it *models.Item) error {
	return s.updateItem(ctx, it.ID, sq.Eq{
		"name":      it.Name,
		"price":     it.Price,
		"link":      it.Link,
		"notes":     it.Notes,
		"photo_url": it.PhotoURL,
	})
}

func (s *Store) SetItemPurchased(ctx context.Context, id string) error {
	return s.updateItem(ctx, id, sq.Eq{"purchased": true})
}

func (s *Store) updateItem(ctx context.Context, id string, set map[string]interface{}) error {
	query, args, err := sq.Update(itemsTable).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(err, "update item")
	}
	return expectAffected(res, "update item")
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	query, args, err := sq.Delete(itemsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(err, "delete item")
	}
	return expectAffected(res, "delete item")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var it models.Item
	err := row.Scan(&it.ID, &it.WishlistID, &it.Name, &it.Price, &it.Link, &it.Notes, &it.PhotoURL, &it.Purchased, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return errors.Wrap(models.ErrNotFound, op)
	}
	return nil
}

// wrapError maps driver errors onto the models sentinels.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(models.ErrNotFound, op)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return errors.Wrap(models.ErrDuplicate, op)
		}
	}
	return errors.Wrap(err, op)
}
