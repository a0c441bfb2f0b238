package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/ekharid/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key clash.
const mysqlDuplicateEntry = 1062

// MySQLUserRepo stores users in the 'users' table.
type MySQLUserRepo struct{ DB *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{DB: db} }

// CreateUser inserts u and assigns its ID.
func (r *MySQLUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, username, email, password_hash, role) VALUES (?,?,?,?,?)",
		u.FullName, u.Username, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		return mysqlUserConflict(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = strconv.FormatInt(id, 10)
	return nil
}

// mysqlUserConflict maps a duplicate-key error on the users table to the
// conflict it stands for.  Other errors pass through.
func mysqlUserConflict(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	if strings.Contains(me.Message, "username") { // key name uq_users_username
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// UserByID fetches a user by numeric id.
func (r *MySQLUserRepo) UserByID(ctx context.Context, id string) (*model.User, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,username,email,password_hash,role,created_at FROM users WHERE id=? LIMIT 1", n))
}

// UserByEmail fetches a user by normalized email.
func (r *MySQLUserRepo) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,username,email,password_hash,role,created_at FROM users WHERE email=? LIMIT 1", email))
}

func (r *MySQLUserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		u  model.User
		id uint64
	)
	err := row.Scan(&id, &u.FullName, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.ID = strconv.FormatUint(id, 10)
	return &u, nil
}
