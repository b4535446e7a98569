package user

import (
	"time"

	"github.com/trezcool/madrasa/core"
)

// ServiceMock sends mails synchronously so tests can inspect them.
type ServiceMock struct {
	*service
}

var _ Service = (*ServiceMock)(nil)

func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) *ServiceMock {
	return &ServiceMock{service: newService(repo, mailSvc, conf)}
}

func (svc *ServiceMock) RequestPasswordReset(email string) error {
	usr, err := svc.GetByUsernameOrEmail(email)
	if err != nil {
		return err
	}
	if !usr.IsActive || usr.Email == "" {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken issues a password reset token as if it was sent at `at`.
func (svc *ServiceMock) MakeResetToken(usr User, at time.Time) (string, error) {
	tg := svc.tokens
	tg.nowFunc = func() time.Time { return at }
	return tg.makeToken(usr)
}
