package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
	"invoicing/internal/store"
	"invoicing/internal/utils"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Session is returned by register and login.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	CompanyName string
}

// ProfileInput carries the billing profile fields. Nil fields are left
// unchanged.
type ProfileInput struct {
	Name        *string
	CompanyName *string
	Address     *string
	Phone       *string
	LogoURL     *string
}

// Auth registers users, issues tokens and maintains profiles.
type Auth struct {
	users  *store.Users
	secret string
	ttl    time.Duration
	cost   int
}

func NewAuth(users *store.Users, secret string, ttl time.Duration) *Auth {
	return &Auth{users: users, secret: secret, ttl: ttl, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (a *Auth) WithHashCost(cost int) *Auth {
	a.cost = cost
	return a
}

func (a *Auth) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	v := Violations{}
	v.Required("email", in.Email)
	v.Required("name", in.Name)
	if len(in.Password) < MinPasswordLength {
		v["password"] = "must be at least 6 characters"
	}
	if err := v.Err("Invalid registration"); err != nil {
		return nil, err
	}
	taken, err := a.users.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Field("email", "Email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	user := &domain.User{
		Email:       in.Email,
		Password:    string(hash),
		Name:        in.Name,
		CompanyName: in.CompanyName,
		Role:        domain.RoleUser,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	return a.session(user)
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.users.ByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	} else if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logrus.WithField("user_id", user.ID).WithError(err).Warn("Stored password hash unreadable")
		}
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	logrus.WithField("user_id", user.ID).Info("User logged in")
	return a.session(user)
}

// Me returns the authenticated user.
func (a *Auth) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return a.users.ByID(ctx, userID)
}

// UpdateProfile changes the billing profile of the authenticated user.
func (a *Auth) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*domain.User, error) {
	user, err := a.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var columns []string
	set := func(dst *string, src *string, column string) {
		if src != nil {
			*dst = *src
			columns = append(columns, column)
		}
	}
	set(&user.Name, in.Name, "name")
	set(&user.CompanyName, in.CompanyName, "company_name")
	set(&user.Address, in.Address, "address")
	set(&user.Phone, in.Phone, "phone")
	set(&user.LogoURL, in.LogoURL, "logo_url")
	v := Violations{}
	v.Required("name", user.Name)
	if err := v.Err("Invalid profile"); err != nil {
		return nil, err
	}
	if err := a.users.Update(ctx, user, columns...); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "columns": columns}).Info("Profile updated")
	return a.users.ByID(ctx, userID)
}

func (a *Auth) session(user *domain.User) (*Session, error) {
	token, err := utils.GenerateJWT(user.ID, a.secret, a.ttl)
	if err != nil {
		return nil, apperr.Internal(err, "sign token")
	}
	return &Session{User: user, Token: token}, nil
}
