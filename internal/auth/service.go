// Package auth implements the single operator authentication model: operators are stored in
// the operators table with bcrypt password hashes and authenticate with HS256 bearer tokens.
// Logout revokes the token id until it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/auth/db"
	"ms-backoffice/internal/database"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/validation"
)

type OperatorDBLayer interface {
	CreateOperator(ctx context.Context, op *models.Operator) error
	GetOperatorByID(ctx context.Context, id int64) (*models.Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error)
	GetOperatorByMobile(ctx context.Context, mobile string) (*models.Operator, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginInput accepts either an email address or a mobile number as the login.
type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Operator  *models.Operator `json:"operator"`
}

type Service struct {
	DB     OperatorDBLayer
	Tokens *Tokens
	Deny   DenyList
	Logger *logger.Logger
}

func NewService(store OperatorDBLayer, tokens *Tokens, deny DenyList, log *logger.Logger) *Service {
	return &Service{DB: store, Tokens: tokens, Deny: deny, Logger: log}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Operator, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.DB.GetOperatorByMobile(ctx, in.Mobile); err == nil {
		return nil, apperr.Conflict("mobile %s is already registered", in.Mobile)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup operator mobile: %w", err)
	}
	if _, err := s.DB.GetOperatorByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("email %s is already registered", in.Email)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup operator email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	op := &models.Operator{
		Name:         in.Name,
		Mobile:       in.Mobile,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateOperator(ctx, op); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("mobile or email is already registered")
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}
	s.Logger.LogSecurity("REGISTER", fmt.Sprintf("operator %d registered (%s)", op.ID, op.Email))
	return op, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(in.Login)

	var op *models.Operator
	var err error
	if validation.IsMobile(login) {
		op, err = s.DB.GetOperatorByMobile(ctx, login)
	} else {
		op, err = s.DB.GetOperatorByEmail(ctx, strings.ToLower(login))
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup operator: %w", err)
	}
	if op == nil || !CheckPassword(op.PasswordHash, in.Password) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("login=%s", login))
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !op.IsActive {
		s.Logger.LogSecurity("LOGIN_INACTIVE", fmt.Sprintf("operator %d", op.ID))
		return nil, apperr.Unauthorized("operator account is disabled")
	}

	token, claims, err := s.Tokens.Issue(op)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, Operator: op}, nil
}

// Logout revokes the token of the operator in ctx.
func (s *Service) Logout(ctx context.Context) error {
	op, ok := FromContext(ctx)
	if !ok || op.TokenID == "" {
		return apperr.Unauthorized("not logged in")
	}
	ttl := time.Until(time.Unix(op.ExpiresAt, 0))
	if err := s.Deny.Revoke(ctx, op.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.Logger.LogSecurity("LOGOUT", fmt.Sprintf("operator %d", op.ID))
	return nil
}

// Me returns the stored record of the operator in ctx.
func (s *Service) Me(ctx context.Context) (*models.Operator, error) {
	id := OperatorID(ctx)
	op, err := s.DB.GetOperatorByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("operator", fmt.Sprint(id))
	}
	return op, err
}
