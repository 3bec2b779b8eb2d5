package guard

import (
	"context"
	"time"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/errutil"

	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	configs  *ConfigStore
	sessions SessionStore
	cfg      *config.Config
	now      func() time.Time
}

type ServiceParams struct {
	fx.In
	Configs  *ConfigStore
	Sessions SessionStore
	Config   *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		configs:  p.Configs,
		sessions: p.Sessions,
		cfg:      p.Config,
		now:      time.Now,
	}
}

// PageSlug normalizes a page name into the key form the configuration
// and session store use.
func PageSlug(name string) string {
	return slug.Make(name)
}

type StatusResult struct {
	Page        string    `json:"page"`
	State       State     `json:"state"`
	LockedUntil time.Time `json:"locked_until,omitempty"`
	Expiry      time.Time `json:"expiry,omitempty"`
}

// Status evaluates the guard state of one page for the caller.
func (s *Service) Status(ctx context.Context, caller Caller, page string) (*StatusResult, error) {
	page = PageSlug(page)

	cfg, err := s.configs.Load(ctx, s.cfg.Guard.ExpiryMinutes)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, errutil.Internal("malformed guard config", errutil.WithErr(err))
	}

	sess, err := s.sessions.Get(ctx, caller.UserID, page)
	if err != nil {
		return nil, errutil.Internal("failed to read guard session", errutil.WithErr(err))
	}

	result := &StatusResult{
		Page:  page,
		State: Evaluate(settings, caller, page, sess, s.now()),
	}
	if result.State == StateAuthenticated && sess != nil {
		result.Expiry = sess.Expiry
	}
	if result.State == StateUnauthenticated {
		until, err := s.sessions.LockedUntil(ctx, caller.UserID, page)
		if err == nil && until.After(s.now()) {
			result.LockedUntil = until
		}
	}

	return result, nil
}

type AuthenticateInput struct {
	Page     string `json:"page"`
	Password string `json:"password"`
}

// Authenticate exchanges the master password for a time-boxed session on
// one page. Repeated wrong passwords lock the caller out of the page for
// a short cooldown.
func (s *Service) Authenticate(ctx context.Context, caller Caller, in AuthenticateInput) (*StatusResult, error) {
	page := PageSlug(in.Page)
	if page == "" {
		return nil, errutil.ValidationFailed("page is required")
	}
	if caller.UserID == "" {
		return nil, errutil.Unauthorized("caller identity is required")
	}

	cfg, err := s.configs.Load(ctx, s.cfg.Guard.ExpiryMinutes)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, errutil.Internal("malformed guard config", errutil.WithErr(err))
	}

	now := s.now()
	switch Evaluate(settings, caller, page, nil, now) {
	case StateUnprotected:
		return &StatusResult{Page: page, State: StateUnprotected}, nil
	case StateAccessDenied:
		return nil, errutil.Forbidden("caller is not authorized for this page")
	}

	until, err := s.sessions.LockedUntil(ctx, caller.UserID, page)
	if err != nil {
		return nil, errutil.Internal("failed to read guard lockout", errutil.WithErr(err))
	}
	if until.After(now) {
		return nil, errutil.TooManyRequest("too many failed attempts, try again later")
	}

	if in.Password != cfg.MasterPassword {
		attempts, err := s.sessions.IncrAttempts(ctx, caller.UserID, page)
		if err != nil {
			return nil, errutil.Internal("failed to count guard attempt", errutil.WithErr(err))
		}
		if attempts >= s.cfg.Guard.MaxAttempts {
			lockout := time.Duration(s.cfg.Guard.LockoutSeconds) * time.Second
			if err := s.sessions.Lock(ctx, caller.UserID, page, lockout); err != nil {
				return nil, errutil.Internal("failed to lock guard page", errutil.WithErr(err))
			}
			if err := s.sessions.ResetAttempts(ctx, caller.UserID, page); err != nil {
				return nil, errutil.Internal("failed to reset guard attempts", errutil.WithErr(err))
			}
			zap.L().Warn("guard lockout",
				zap.String("user_id", caller.UserID),
				zap.String("page", page),
			)
			return nil, errutil.TooManyRequest("too many failed attempts, try again later")
		}
		return nil, errutil.Unauthorized("wrong password")
	}

	if err := s.sessions.ResetAttempts(ctx, caller.UserID, page); err != nil {
		return nil, errutil.Internal("failed to reset guard attempts", errutil.WithErr(err))
	}

	expiryMinutes := settings.ExpiryMinutes
	if expiryMinutes <= 0 {
		expiryMinutes = s.cfg.Guard.ExpiryMinutes
	}

	sess := &Session{
		UserID:    caller.UserID,
		UserEmail: caller.Email,
		UserRole:  caller.Role,
		UserType:  caller.Type,
		Page:      page,
		Expiry:    now.Add(time.Duration(expiryMinutes) * time.Minute),
		CreatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess, sess.Expiry.Sub(now)); err != nil {
		return nil, errutil.Internal("failed to store guard session", errutil.WithErr(err))
	}

	return &StatusResult{Page: page, State: StateAuthenticated, Expiry: sess.Expiry}, nil
}

// Logout destroys the caller's session on one page.
func (s *Service) Logout(ctx context.Context, caller Caller, page string) error {
	page = PageSlug(page)
	if page == "" {
		return errutil.ValidationFailed("page is required")
	}
	if err := s.sessions.Delete(ctx, caller.UserID, page); err != nil {
		return errutil.Internal("failed to delete guard session", errutil.WithErr(err))
	}
	return nil
}

// GetSettings returns the configuration without the master password.
func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	cfg, err := s.configs.Load(ctx, s.cfg.Guard.ExpiryMinutes)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, errutil.Internal("malformed guard config", errutil.WithErr(err))
	}
	return &settings, nil
}

type UpdateConfigInput struct {
	CurrentPassword     string                   `json:"current_password"`
	MasterPassword      string                   `json:"master_password"`
	ExpiryMinutes       int                      `json:"expiry_minutes"`
	ProtectedPages      map[string]ProtectedPage `json:"protected_pages"`
	AuthorizedRoles     []string                 `json:"authorized_roles"`
	AuthorizedUserTypes []string                 `json:"authorized_user_types"`
}

// UpdateConfig replaces the configuration. The caller has to re-enter the
// current master password for any change to go through.
func (s *Service) UpdateConfig(ctx context.Context, in UpdateConfigInput) (*Settings, error) {
	cfg, err := s.configs.Load(ctx, s.cfg.Guard.ExpiryMinutes)
	if err != nil {
		return nil, err
	}
	if in.CurrentPassword != cfg.MasterPassword {
		return nil, errutil.Unauthorized("current password does not match")
	}
	if in.ExpiryMinutes < 0 {
		return nil, errutil.ValidationFailed("expiry_minutes must not be negative")
	}

	if in.MasterPassword != "" {
		cfg.MasterPassword = in.MasterPassword
	}
	if in.ExpiryMinutes > 0 {
		cfg.ExpiryMinutes = in.ExpiryMinutes
	}

	if in.ProtectedPages != nil {
		pages := make(map[string]ProtectedPage, len(in.ProtectedPages))
		for name, page := range in.ProtectedPages {
			pages[PageSlug(name)] = page
		}
		raw, err := jsonMarshal(pages)
		if err != nil {
			return nil, errutil.Internal("failed to encode protected pages", errutil.WithErr(err))
		}
		cfg.ProtectedPages = raw
	}
	if in.AuthorizedRoles != nil {
		raw, err := jsonMarshal(in.AuthorizedRoles)
		if err != nil {
			return nil, errutil.Internal("failed to encode authorized roles", errutil.WithErr(err))
		}
		cfg.AuthorizedRoles = raw
	}
	if in.AuthorizedUserTypes != nil {
		raw, err := jsonMarshal(in.AuthorizedUserTypes)
		if err != nil {
			return nil, errutil.Internal("failed to encode authorized user types", errutil.WithErr(err))
		}
		cfg.AuthorizedUserTypes = raw
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	zap.L().Info("guard config updated", zap.Int("expiry_minutes", cfg.ExpiryMinutes))

	settings, err := cfg.Settings()
	if err != nil {
		return nil, errutil.Internal("malformed guard config", errutil.WithErr(err))
	}
	return &settings, nil
}
