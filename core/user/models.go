package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/infobank/intranet/core"
)

// Roles
const (
	RolAdmin   = "admin"
	RolUsuario = "usuario"
)

// Account states. Anything but Activo denies access.
const (
	EstadoActivo    = "Activo"
	EstadoInactivo  = "Inactivo"
	EstadoBloqueado = "Bloqueado"
)

var (
	AllRoles   = []string{RolAdmin, RolUsuario}
	AllEstados = []string{EstadoActivo, EstadoInactivo, EstadoBloqueado}
)

type User struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellido     string    `json:"apellido"`
	Email        string    `json:"email"`
	Area         string    `json:"area"`
	Rol          string    `json:"rol"`    // admin | usuario
	Estado       string    `json:"estado"` // Activo | Inactivo | Bloqueado
	PhotoURL     string    `json:"photoUrl"`
	PasswordHash []byte    `json:"-"`
	LastAccess   time.Time `json:"ultimoAcceso"` // UTC
	CreatedAt    time.Time `json:"createdAt"`    // UTC
	UpdatedAt    time.Time `json:"updatedAt"`    // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool { return u.Rol == RolAdmin }

// IsActive reports whether the account may hold a session.
func (u *User) IsActive() bool { return u.Estado == EstadoActivo }

// NewUser contains information needed to register a new User.
// Registration is an admin action; self sign-up does not exist.
type NewUser struct {
	Nombre          string `json:"nombre" validate:"required"`
	Apellido        string `json:"apellido"`
	Email           string `json:"email" validate:"required,email"`
	Area            string `json:"area"`
	Rol             string `json:"rol" validate:"required,oneof=admin usuario"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Nombre = core.CleanString(nu.Nombre)
	nu.Apellido = core.CleanString(nu.Apellido)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Area = core.CleanString(nu.Area)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Nombre          string  `json:"nombre"`
	Apellido        *string `json:"apellido"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Area            *string `json:"area"`
	Rol             string  `json:"rol" validate:"omitempty,oneof=admin usuario"`
	Estado          string  `json:"estado" validate:"omitempty,oneof=Activo Inactivo Bloqueado"`
	PhotoURL        *string `json:"photoUrl"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	if nombre := core.CleanString(uu.Nombre); nombre != "" {
		uu.Nombre = nombre
	} else {
		uu.Nombre = origUsr.Nombre
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	// Search does a case-insensitive match on Nombre, Apellido or Email.
	Search      string    `query:"search"`
	Rol         string    `query:"rol"`
	Estado      string    `query:"estado"`
	Area        string    `query:"area"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Rol == "" && qf.Estado == "" && qf.Area == "" &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Area = core.CleanString(qf.Area)
}
