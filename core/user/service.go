package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Collection is the live feed topic for account documents.
const Collection = "usuarios"

// AccountTopic is the per-account feed; the auto-logout guard listens here.
func AccountTopic(id string) string { return Collection + ":" + id }

// BlockedEvent is pushed to an account's feed when an admin flips its estado
// to Inactivo or Bloqueado. Clients show a non-dismissible notice and are
// navigated away once LogoutAfter elapses.
type BlockedEvent struct {
	Estado      string `json:"estado"`
	LogoutAfter int    `json:"logoutAfterSeconds"`
	Message     string `json:"message"`
}

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when email is taken by
		// a user not in excludedUsers.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string) (int, error)
	}

	// SessionRevoker invalidates live sessions out-of-band; backing store is
	// redis when configured, in-process otherwise.
	SessionRevoker interface {
		Revoke(ctx context.Context, userID string, ttl time.Duration) error
		IsRevoked(ctx context.Context, userID string) (bool, error)
		Clear(ctx context.Context, userID string) error
	}

	ServiceInterface interface {
		CheckUniqueness(email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastAccess(ctx context.Context, usr User) (User, error)
		Logout(ctx context.Context, userID string) error
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
		bus     *core.Bus
		revoker SessionRevoker
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, bus *core.Bus, revoker SessionRevoker) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		mailSvc: mailSvc,
		bus:     bus,
		revoker: revoker,
	}
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Nombre:    nu.Nombre,
		Apellido:  nu.Apellido,
		Email:     nu.Email,
		Area:      nu.Area,
		Rol:       nu.Rol,
		Estado:    EstadoActivo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: usr})
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetLastAccess stamps a successful sign-in. A fresh sign-in also lifts any
// standing revocation; blocked accounts never get this far.
func (svc *Service) SetLastAccess(ctx context.Context, usr User) (User, error) {
	if err := svc.revoker.Clear(ctx, usr.ID); err != nil {
		return User{}, errors.Wrap(err, "clearing session revocation")
	}
	usr.LastAccess = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Logout revokes the account's sessions for the full token lifetime; the next
// sign-in clears the revocation.
func (svc *Service) Logout(ctx context.Context, userID string) error {
	return errors.Wrap(svc.revoker.Revoke(ctx, userID, svc.conf.Server.JWTExpirationDelta), "revoking sessions")
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	usr := orig
	usr.Nombre = uu.Nombre
	usr.Email = uu.Email
	if uu.Apellido != nil {
		usr.Apellido = *uu.Apellido
	}
	if uu.Area != nil {
		usr.Area = *uu.Area
	}
	if uu.PhotoURL != nil {
		usr.PhotoURL = *uu.PhotoURL
	}
	if uu.Rol != "" {
		usr.Rol = uu.Rol
	}
	if uu.Estado != "" {
		usr.Estado = uu.Estado
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	if usr.Estado != orig.Estado {
		if err := svc.applyEstadoChange(ctx, usr); err != nil {
			return User{}, err
		}
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: usr})
	return usr, nil
}

// applyEstadoChange enforces administrative blocking on live sessions:
// sessions are revoked first so no request slips through, then the account's
// feed gets the blocking notice with the fixed countdown.
func (svc *Service) applyEstadoChange(ctx context.Context, usr User) error {
	if usr.IsActive() {
		if err := svc.revoker.Clear(ctx, usr.ID); err != nil {
			return errors.Wrap(err, "clearing session revocation")
		}
		return nil
	}

	if err := svc.revoker.Revoke(ctx, usr.ID, svc.conf.Server.JWTExpirationDelta); err != nil {
		return errors.Wrap(err, "revoking sessions")
	}
	svc.bus.Publish(core.Event{
		Topic:  AccountTopic(usr.ID),
		Action: "blocked",
		Doc: BlockedEvent{
			Estado:      usr.Estado,
			LogoutAfter: int(svc.conf.Server.BlockedLogoutDelay / time.Second),
			Message:     "El administrador ha bloqueado tu acceso.",
		},
	})
	return nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteUsersByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: User{ID: id}})
	}
	return nil
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := MakeToken(svc.conf, usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Nombre, Address: usr.Email}},
		Subject:      "Restablecer contraseña — " + svc.conf.AppName,
		TemplateName: "password-reset",
		TemplateData: struct {
			User  User
			UID   string
			Token string
		}{usr, EncodeUID(usr), token},
	})
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(svc.conf, usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
