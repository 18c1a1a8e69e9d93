package service

import (
	"context"
	"errors"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/metrics"
	"luxwise/cv-back/model"
	"luxwise/cv-back/security"
	"luxwise/cv-back/validators"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength  = 16
)

const (
	msgEmailRegistered = "Email already registered"
	msgRecentAttempt   = "A registration attempt was made recently. Please check your email for the verification code or try again later."
	msgInvalidCode     = "Invalid verification code."
	msgExpiredCode     = "Verification code has expired."
)

func newID() (string, error) {
	return gonanoid.Generate(idCharset, idLength)
}

type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Password  string `json:"password"`
}

func (in *RegisterInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validators.EmailValidator(in.Email); err != nil {
		return err
	}

	if err := validators.NameValidator(in.FirstName); err != nil {
		return err
	}

	if err := validators.NameValidator(in.LastName); err != nil {
		return err
	}

	return validators.PasswordValidator(in.Password)
}

// Registrar drives an email through pending registration, code confirmation
// and provisioning by the identity authority
type Registrar struct {
	db       *gorm.DB
	argon    *security.ArgonHash
	tokens   *security.TokenIssuer
	codes    security.CodeGenerator
	identity *IdentityClient
	mailer   Mailer
	ttl      time.Duration

	now func() time.Time
}

func NewRegistrar(d *gorm.DB, argon *security.ArgonHash, tokens *security.TokenIssuer, identity *IdentityClient, mailer Mailer, ttl time.Duration) *Registrar {
	return &Registrar{
		db:       d,
		argon:    argon,
		tokens:   tokens,
		identity: identity,
		mailer:   mailer,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initiate stores a pending registration with a fresh verification code and
// mails the code. The code is also returned to the caller.
func (r *Registrar) Initiate(ctx context.Context, in RegisterInput) (code string, err error) {
	defer func() { metrics.Registration(err == nil) }()

	if err := in.normalize(); err != nil {
		return "", apperr.Validation(err.Error())
	}

	d := r.db.WithContext(ctx)

	var accounts int64
	if err := d.Model(&model.Account{}).Where("email = ?", in.Email).Count(&accounts).Error; err != nil {
		return "", apperr.Internal("Error processing registration.", err)
	}

	if accounts > 0 {
		return "", apperr.Validation(msgEmailRegistered)
	}

	var latest model.PendingRegistration
	err = d.
		Where("email = ? AND is_verified = ?", in.Email, false).
		Order("created_at desc").
		Take(&latest).
		Error

	stale := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return "", apperr.Internal("Error processing registration.", err)
	case r.now().Sub(latest.CreatedAt) < r.ttl:
		return "", apperr.Validation(msgRecentAttempt)
	default:
		stale = true
	}

	hash, err := r.argon.GenerateFromPassword(in.Password)
	if err != nil {
		return "", apperr.Internal("Error processing registration.", err)
	}

	code, err = r.codes.Generate(func(c string) (bool, error) {
		var n int64
		err := d.Model(&model.VerificationCode{}).Where("code = ?", c).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return "", apperr.Internal("Error processing registration.", err)
	}

	id, err := newID()
	if err != nil {
		return "", apperr.Internal("Error processing registration.", err)
	}

	now := r.now()
	pending := model.PendingRegistration{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	err = d.Transaction(func(tx *gorm.DB) error {
		if stale {
			if _, err := purgeUnverified(tx, "email = ?", in.Email); err != nil {
				return err
			}
		}

		if err := tx.Create(&pending).Error; err != nil {
			return err
		}

		return tx.Create(&model.VerificationCode{
			Code:                  code,
			PendingRegistrationID: pending.ID,
			CreatedAt:             now,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", apperr.Validation(msgRecentAttempt)
	}
	if err != nil {
		return "", apperr.Internal("Error processing registration.", err)
	}

	err = r.mailer.SendVerification(ctx, VerificationMail{
		To:   pending.Email,
		Name: pending.FirstName,
		Code: code,
		TTL:  r.ttl,
	})
	if err != nil {
		zap.L().Error("Failed to send verification mail",
			zap.Error(err),
			zap.String("pendingID", pending.ID),
		)
	}

	return code, nil
}

// Confirm provisions the account behind code. A failed identity call leaves
// the pending registration and its code untouched so the same code can be
// tried again while it is fresh.
func (r *Registrar) Confirm(ctx context.Context, code string) (acc *model.Account, err error) {
	defer func() { metrics.Confirmation(err == nil) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation(msgInvalidCode)
	}

	d := r.db.WithContext(ctx)

	var vc model.VerificationCode
	err = d.Preload("PendingRegistration").Where("code = ?", code).Take(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation(msgInvalidCode)
	}
	if err != nil {
		return nil, apperr.Internal("Error confirming registration.", err)
	}

	p := vc.PendingRegistration
	if p == nil || p.IsVerified {
		return nil, apperr.Validation(msgInvalidCode)
	}

	if r.now().Sub(vc.CreatedAt) > r.ttl {
		return nil, apperr.Validation(msgExpiredCode)
	}

	var accounts int64
	if err := d.Model(&model.Account{}).Where("email = ?", p.Email).Count(&accounts).Error; err != nil {
		return nil, apperr.Internal("Error confirming registration.", err)
	}

	if accounts > 0 {
		return nil, apperr.Validation(msgEmailRegistered + ".")
	}

	token, err := r.tokens.RegisterToken(p)
	if err != nil {
		return nil, apperr.Internal("Error confirming registration.", err)
	}

	apiKey, err := r.identity.RegisterExternal(ctx, token, p)
	if err != nil {
		return nil, err
	}

	acc = &model.Account{
		ID:           p.ID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		APIKey:       &apiKey,
		IsActive:     true,
		CreatedAt:    r.now(),
	}

	err = d.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}

		res := tx.Model(&model.PendingRegistration{}).
			Where("id = ? AND is_verified = ?", p.ID, false).
			Update("is_verified", true)
		if res.Error != nil {
			return res.Error
		}

		// Someone else confirmed the same code in the meantime
		if res.RowsAffected == 0 {
			return apperr.Validation(msgInvalidCode)
		}

		return tx.Delete(&model.VerificationCode{}, vc.ID).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && r.emailTaken(ctx, p.Email) {
		return nil, apperr.Validation(msgEmailRegistered + ".")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Error confirming registration.")
	}

	zap.L().Info("Account provisioned", zap.String("accountID", acc.ID))
	return acc, nil
}

// emailTaken tells a duplicate email apart from any other unique violation
// raised while promoting a registration
func (r *Registrar) emailTaken(ctx context.Context, email string) bool {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("email = ?", email).Count(&n).Error
	if err != nil {
		zap.L().Error("Failed to check email after duplicate key", zap.Error(err))
		return false
	}

	return n > 0
}

// ReclaimExpired removes unverified registrations older than the TTL along
// with their codes and returns how many were removed
func (r *Registrar) ReclaimExpired(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.ttl)

	var n int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = purgeUnverified(tx, "created_at < ?", cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}

	metrics.Reclaimed(n)
	return n, nil
}

// RunReclaimer calls ReclaimExpired once right away and then every interval
// until ctx is done
func (r *Registrar) RunReclaimer(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zap.L().Debug("Registration cleanup attached", zap.Duration("tick_every", interval))

	for {
		n, err := r.ReclaimExpired(ctx)
		if err != nil && ctx.Err() == nil {
			zap.L().Error("Failed to reclaim expired registrations", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("Reclaimed expired registrations", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// purgeUnverified deletes the unverified pending rows matching query and
// their verification codes
func purgeUnverified(tx *gorm.DB, query string, args ...any) (int, error) {
	var ids []string

	err := tx.Model(&model.PendingRegistration{}).
		Where(query, args...).
		Where("is_verified = ?", false).
		Pluck("id", &ids).
		Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	if err := tx.Where("pending_registration_id IN ?", ids).Delete(&model.VerificationCode{}).Error; err != nil {
		return 0, err
	}

	if err := tx.Where("id IN ?", ids).Delete(&model.PendingRegistration{}).Error; err != nil {
		return 0, err
	}

	return len(ids), nil
}
