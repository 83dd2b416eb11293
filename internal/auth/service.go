package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/cache"
	"github.com/sntnmjones/RentalApp/internal/mail"
	"github.com/sntnmjones/RentalApp/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
)

const resetTokenNamespace = "reset_token"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// UserStore persists accounts.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) (*model.User, error)
}

// ReviewLister lists the reviews a user wrote, newest first.
type ReviewLister interface {
	ListReviewsForUser(ctx context.Context, username string) ([]*model.Review, error)
}

// Config tunes password hashing and reset tokens.
type Config struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
}

// Service handles registration, login and account recovery.
type Service struct {
	users   UserStore
	reviews ReviewLister
	mailer  mail.Mailer
	tokens  cache.CacheService
	keys    cache.KeySerializer
	cfg     Config
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source for token expiry and join dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the account service. tokens holds password reset
// tokens; its TTL should be at least cfg.ResetTokenTTL.
func NewService(users UserStore, reviews ReviewLister, mailer mail.Mailer, tokens cache.CacheService, cfg Config, opts ...Option) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ResetTokenTTL == 0 {
		cfg.ResetTokenTTL = time.Hour
	}

	s := &Service{
		users:   users,
		reviews: reviews,
		mailer:  mailer,
		tokens:  tokens,
		keys:    cache.NewDefaultKeySerializer(),
		cfg:     cfg,
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Validate checks the form.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required,
			validation.Length(3, 150),
			validation.Match(usernamePattern).Error("may contain only letters, digits and @.+-_"),
		),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, passwordRules(in.Username, in.Email)...),
		validation.Field(&in.PasswordConfirm, validation.Required, matches(in.Password)),
	)
}

// passwordRules checks a new password for the account with the given
// username and email.
func passwordRules(username, email string) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 72),
		validation.By(notNumeric),
		validation.By(notSimilarTo(username, email)),
	}
}

func notNumeric(value any) error {
	s, _ := value.(string)
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return errors.New("cannot be entirely numeric")
	}
	return nil
}

var attributeSeparator = regexp.MustCompile(`[^a-z0-9]+`)

// notSimilarTo rejects a password that contains, or is contained in, the
// username, the email, the email's local part, or any word of those at least
// four characters long.
func notSimilarTo(username, email string) validation.RuleFunc {
	local, _, _ := strings.Cut(email, "@")

	var parts []string
	for _, attr := range []string{username, email, local} {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		parts = append(parts, attr)
		for _, word := range attributeSeparator.Split(attr, -1) {
			if len(word) >= 4 && word != attr {
				parts = append(parts, word)
			}
		}
	}

	return func(value any) error {
		s, _ := value.(string)
		password := strings.ToLower(s)
		if password == "" {
			return nil
		}
		for _, part := range parts {
			if len(part) >= 3 && (strings.Contains(password, part) || strings.Contains(part, password)) {
				return errors.New("is too similar to the username or email")
			}
		}
		return nil
	}
}

func matches(password string) validation.Rule {
	return validation.By(func(value any) error {
		if s, _ := value.(string); s != password {
			return errors.New("passwords do not match")
		}
		return nil
	})
}

// Register creates an account. A taken username is model.ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		DateJoined:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", in.Username, err)
	}

	s.logger.Info("user registered", "user", user.Username)
	return user, nil
}

// Authenticate returns the user when password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", "user", username)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ForgotUsername mails the username registered to email. It returns nil
// whether or not such an account exists.
func (s *Service) ForgotUsername(ctx context.Context, email, baseURL string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Rentalranter Username",
		Body: fmt.Sprintf("Your username is %s.\n\nLog in at %s\n",
			user.Username, strings.TrimRight(baseURL, "/")+"/login"),
	})
}

// RequestPasswordReset mails a one-time reset link to the account
// registered with email. It returns nil whether or not such an account
// exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}

	token := uuid.NewString()
	record := resetToken{Username: user.Username, ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL)}
	if err := s.tokens.Set(ctx, s.tokenKey(token), record); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := strings.TrimRight(baseURL, "/") + "/password-reset/confirm?token=" + url.QueryEscape(token)
	s.logger.Info("password reset requested", "user", user.Username)
	return s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Rentalranter Password Reset",
		Body: fmt.Sprintf("Someone asked to reset the password for %s.\n\nSet a new one at %s\n\nThe link expires in %s. If you did not ask for this, ignore this email.\n",
			user.Username, link, s.cfg.ResetTokenTTL),
	})
}

// ConfirmPasswordReset sets a new password for the account the token was
// issued to. The token is consumed on success.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	key := s.tokenKey(token)
	record, ok := cache.Get[resetToken](ctx, s.tokens, key)
	if !ok || !s.now().Before(record.ExpiresAt) {
		return ErrInvalidToken
	}

	user, err := s.users.FindUserByUsername(ctx, record.Username)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	err = validation.Errors{
		"password":         validation.Validate(password, passwordRules(user.Username, user.Email)...),
		"password_confirm": validation.Validate(confirm, validation.Required, matches(password)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if _, err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.tokens.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to consume reset token", "user", user.Username, "err", err)
	}
	s.logger.Info("password reset", "user", user.Username)
	return nil
}

// Profile is a user with the reviews they wrote.
type Profile struct {
	User    *model.User     `json:"user"`
	Reviews []*model.Review `json:"reviews"`
}

// Profile loads the account page for username.
func (s *Service) Profile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("profile of %q: %w", username, err)
	}

	reviews, err := s.reviews.ListReviewsForUser(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	return &Profile{User: user, Reviews: reviews}, nil
}

// userByEmail validates email and resolves it. A missing account is
// (nil, nil).
func (s *Service) userByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return nil, fmt.Errorf("%w: email %w", model.ErrInvalidInput, err)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Debug("no account for email")
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

type resetToken struct {
	Username  string
	ExpiresAt time.Time
}

func (s *Service) tokenKey(token string) string {
	return s.keys.SerializeKey(resetTokenNamespace, token)
}
