package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Nombre       string    `db:"nombre"`
	Apellido     string    `db:"apellido"`
	Email        string    `db:"email"`
	Area         string    `db:"area"`
	Rol          string    `db:"rol"`
	Estado       string    `db:"estado"`
	PhotoURL     string    `db:"photo_url"`
	PasswordHash []byte    `db:"password_hash"`
	LastAccess   null.Time `db:"last_access"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row userRow) toCore() user.User {
	return user.User{
		ID:           row.ID,
		Nombre:       row.Nombre,
		Apellido:     row.Apellido,
		Email:        row.Email,
		Area:         row.Area,
		Rol:          row.Rol,
		Estado:       row.Estado,
		PhotoURL:     row.PhotoURL,
		PasswordHash: row.PasswordHash,
		LastAccess:   row.LastAccess.Time,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Nombre:       usr.Nombre,
		Apellido:     usr.Apellido,
		Email:        usr.Email,
		Area:         usr.Area,
		Rol:          usr.Rol,
		Estado:       usr.Estado,
		PhotoURL:     usr.PhotoURL,
		PasswordHash: usr.PasswordHash,
		LastAccess:   null.NewTime(usr.LastAccess, !usr.LastAccess.IsZero()),
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

var userOrderings = map[string]string{
	"nombre":     "nombre",
	"email":      "email",
	"area":       "area",
	"estado":     "estado",
	"created_at": "created_at",
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM usuarios WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT COUNT(*) FROM usuarios WHERE email = ? AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(query)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO usuarios (id, nombre, apellido, email, area, rol, estado, photo_url, password_hash, last_access, created_at, updated_at)
		VALUES (:id, :nombre, :apellido, :email, :area, :rol, :estado, :photo_url, :password_hash, :last_access, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, newUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM usuarios`
	var (
		conds []string
		args  []interface{}
	)
	cond := func(clause string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if filter != nil {
		if filter.Search != "" {
			cond(`(nombre ILIKE '%%' || $%d || '%%' OR apellido ILIKE '%%' || $%[1]d || '%%' OR email ILIKE '%%' || $%[1]d || '%%')`, filter.Search)
		}
		if filter.Rol != "" {
			cond(`rol = $%d`, filter.Rol)
		}
		if filter.Estado != "" {
			cond(`estado = $%d`, filter.Estado)
		}
		if filter.Area != "" {
			cond(`area ILIKE $%d`, filter.Area)
		}
		if !filter.CreatedFrom.IsZero() {
			cond(`created_at >= $%d`, filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			cond(`created_at <= $%d`, filter.CreatedTo)
		}
	}
	if len(conds) > 0 {
		query += ` WHERE ` + joinConds(conds)
	}
	query += ` ` + orderBy(ordering, userOrderings, `ORDER BY created_at DESC`)

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toCore())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM usuarios WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM usuarios WHERE email = $1`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const query = `
		UPDATE usuarios
		SET nombre = :nombre, apellido = :apellido, email = :email, area = :area, rol = :rol,
		    estado = :estado, photo_url = :photo_url, password_hash = :password_hash,
		    last_access = :last_access, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM usuarios WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
