package service

import (
	"context"
	"strings"

	"authbridge/internal/domain"
	"authbridge/internal/identity"
	"authbridge/internal/logger"
	"authbridge/internal/metrics"
	"authbridge/internal/port"
)

// GoogleSessionInput is a session the client obtained from the provider's Google OAuth flow.
type GoogleSessionInput struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
}

// RegisterInput is the DTO for password registration.
type RegisterInput struct {
	Email      string
	Password   string
	Attributes domain.ExtendedAttributes
}

// LoginInput is the DTO for password login.
type LoginInput struct {
	Email    string
	Password string
}

// LogoutInput identifies the caller being signed out and the tokens they presented.
type LogoutInput struct {
	ExternalID   string
	AccessToken  string
	RefreshToken string
}

// AuthOutput is returned by every flow that yields a session.
type AuthOutput struct {
	Profile         *domain.Profile
	Session         *domain.Session
	ProfileComplete bool
	IsNewUser       bool
}

// ProfileOutput is a profile plus its computed completeness.
type ProfileOutput struct {
	Profile         *domain.Profile
	ProfileComplete bool
}

// SessionService orchestrates the session and profile flows.
type SessionService interface {
	ExchangeGoogleSession(ctx context.Context, input GoogleSessionInput) (*AuthOutput, error)
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input LoginInput) (*AuthOutput, error)
	// Refresh rotates any provider session; RefreshGoogleSession also requires a
	// linked Google identity.
	Refresh(ctx context.Context, refreshToken string) (*AuthOutput, error)
	RefreshGoogleSession(ctx context.Context, refreshToken string) (*AuthOutput, error)
	Logout(ctx context.Context, input LogoutInput) error
	GetProfile(ctx context.Context, caller *domain.ExternalIdentity) (*ProfileOutput, error)
	UpdateProfile(ctx context.Context, caller *domain.ExternalIdentity, attrs domain.ExtendedAttributes) (*ProfileOutput, error)
}

type sessionService struct {
	provider   port.IdentityProvider
	verifier   SessionVerifier
	settings   *ProviderSettingsCache
	mapper     *identity.Mapper
	reconciler ProfileReconciler
	email      port.EmailSender
	federated  string
}

// NewSessionService creates a new SessionService. federated names the provider
// accepted by the Google session flows.
func NewSessionService(
	provider port.IdentityProvider,
	verifier SessionVerifier,
	settings *ProviderSettingsCache,
	mapper *identity.Mapper,
	reconciler ProfileReconciler,
	email port.EmailSender,
	federated string,
) SessionService {
	if federated == "" {
		federated = string(domain.AuthMethodGoogle)
	}
	return &sessionService{
		provider:   provider,
		verifier:   verifier,
		settings:   settings,
		mapper:     mapper,
		reconciler: reconciler,
		email:      email,
		federated:  federated,
	}
}

func (s *sessionService) ExchangeGoogleSession(ctx context.Context, input GoogleSessionInput) (out *AuthOutput, err error) {
	defer func() { metrics.ObserveFlow("google_exchange", err) }()

	// 1. Provider must have Google enabled with lifetimes inside the ceilings
	settings, err := s.settings.Require(ctx, domain.AuthMethodGoogle)
	if err != nil {
		return nil, err
	}

	// 2. Verify the access token with the provider
	ext, err := s.verifier.Verify(ctx, input.AccessToken)
	if err != nil {
		return nil, err
	}

	// 3. Only linked Google identities are accepted
	if err := s.requireFederated(ext); err != nil {
		return nil, err
	}

	// 4. Map and reconcile
	payload, err := s.mapper.Map(ext, identity.Options{RequireSubject: true})
	if err != nil {
		return nil, err
	}
	res, err := s.reconciler.Reconcile(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.welcome(ctx, res)

	tokenType := strings.TrimSpace(input.TokenType)
	if tokenType == "" {
		tokenType = domain.DefaultTokenType
	}
	session := &domain.Session{
		AccessToken:      strings.TrimSpace(input.AccessToken),
		RefreshToken:     strings.TrimSpace(input.RefreshToken),
		ExpiresIn:        AccessTTL(input.ExpiresIn, settings),
		RefreshExpiresIn: RefreshTTL(settings),
		TokenType:        tokenType,
	}

	return &AuthOutput{
		Profile:         res.Profile,
		Session:         session,
		ProfileComplete: s.reconciler.Complete(res.Profile),
		IsNewUser:       res.IsNewUser,
	}, nil
}

func (s *sessionService) Register(ctx context.Context, input RegisterInput) (out *AuthOutput, err error) {
	defer func() { metrics.ObserveFlow("register", err) }()

	settings, err := s.settings.Require(ctx, domain.AuthMethodEmail)
	if err != nil {
		return nil, err
	}

	attrs := input.Attributes.Sanitize()
	result, err := s.provider.SignUp(ctx, strings.TrimSpace(input.Email), input.Password, attrs.Claims())
	if err != nil {
		return nil, providerFailure(err, domain.ErrRegistrationFailed, true)
	}
	if result == nil || result.Identity == nil {
		return nil, domain.ErrIncompleteIdentity
	}

	payload, err := s.mapper.Map(result.Identity, identity.Options{})
	if err != nil {
		return nil, err
	}
	payload.Attributes = payload.Attributes.Merge(attrs)

	res, err := s.reconciler.Reconcile(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.welcome(ctx, res)

	return &AuthOutput{
		Profile:         res.Profile,
		Session:         capSession(result.Session, "", settings),
		ProfileComplete: s.reconciler.Complete(res.Profile),
		IsNewUser:       res.IsNewUser,
	}, nil
}

func (s *sessionService) Login(ctx context.Context, input LoginInput) (out *AuthOutput, err error) {
	defer func() { metrics.ObserveFlow("login", err) }()

	settings, err := s.settings.Require(ctx, domain.AuthMethodEmail)
	if err != nil {
		return nil, err
	}

	result, err := s.provider.SignInWithPassword(ctx, strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		return nil, providerFailure(err, domain.ErrInvalidCredentials, false)
	}
	if result == nil || result.Session == nil || result.Session.AccessToken == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if result.Identity == nil {
		return nil, domain.ErrIncompleteIdentity
	}

	payload, err := s.mapper.Map(result.Identity, identity.Options{})
	if err != nil {
		return nil, err
	}
	res, err := s.reconciler.Reconcile(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.welcome(ctx, res)

	return &AuthOutput{
		Profile:         res.Profile,
		Session:         capSession(result.Session, "", settings),
		ProfileComplete: s.reconciler.Complete(res.Profile),
		IsNewUser:       res.IsNewUser,
	}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (out *AuthOutput, err error) {
	defer func() { metrics.ObserveFlow("refresh", err) }()
	return s.refresh(ctx, refreshToken, false)
}

func (s *sessionService) RefreshGoogleSession(ctx context.Context, refreshToken string) (out *AuthOutput, err error) {
	defer func() { metrics.ObserveFlow("google_refresh", err) }()
	return s.refresh(ctx, refreshToken, true)
}

func (s *sessionService) refresh(ctx context.Context, refreshToken string, federated bool) (*AuthOutput, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil, domain.ErrRefreshTokenMissing
	}

	var (
		settings *domain.ProviderSettings
		err      error
	)
	if federated {
		settings, err = s.settings.Require(ctx, domain.AuthMethodGoogle)
	} else {
		settings, err = s.settings.Get(ctx)
	}
	if err != nil {
		return nil, err
	}

	result, err := s.provider.RefreshSession(ctx, token)
	if err != nil {
		return nil, providerFailure(err, domain.ErrInvalidRefreshToken, false)
	}
	if result == nil || result.Identity == nil || result.Session == nil || result.Session.AccessToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	if federated {
		if err := s.requireFederated(result.Identity); err != nil {
			return nil, err
		}
	}

	payload, err := s.mapper.Map(result.Identity, identity.Options{RequireSubject: federated, StampNow: true})
	if err != nil {
		return nil, err
	}
	profile, err := s.reconciler.Refresh(ctx, payload)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		Profile:         profile,
		Session:         capSession(result.Session, token, settings),
		ProfileComplete: s.reconciler.Complete(profile),
	}, nil
}

func (s *sessionService) Logout(ctx context.Context, input LogoutInput) (err error) {
	defer func() { metrics.ObserveFlow("logout", err) }()

	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return domain.ErrMissingContext
	}

	if err := s.provider.AdminSignOut(ctx, externalID); err != nil {
		return providerFailure(err, domain.ErrBadRequest, true)
	}

	if strings.TrimSpace(input.AccessToken) != "" || strings.TrimSpace(input.RefreshToken) != "" {
		s.bestEffortSignOut(ctx, externalID, strings.TrimSpace(input.AccessToken))
	}
	return nil
}

// bestEffortSignOut revokes the client session after the admin sign-out already
// succeeded. Failures are logged and never returned.
func (s *sessionService) bestEffortSignOut(ctx context.Context, externalID, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		logger.From(ctx).Warn("client sign-out failed after admin sign-out",
			logger.ExternalID(externalID), logger.Err(err))
	}
}

func (s *sessionService) GetProfile(ctx context.Context, caller *domain.ExternalIdentity) (*ProfileOutput, error) {
	if caller == nil {
		return nil, domain.ErrMissingContext
	}
	profile, err := s.reconciler.Get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: profile, ProfileComplete: s.reconciler.Complete(profile)}, nil
}

func (s *sessionService) UpdateProfile(ctx context.Context, caller *domain.ExternalIdentity, attrs domain.ExtendedAttributes) (out *ProfileOutput, err error) {
	defer func() { metrics.ObserveFlow("update_profile", err) }()

	profile, err := s.reconciler.UpdateProfile(ctx, caller, attrs)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: profile, ProfileComplete: s.reconciler.Complete(profile)}, nil
}

func (s *sessionService) requireFederated(ext *domain.ExternalIdentity) error {
	if ext.Provider != s.federated {
		return domain.ErrUnsupportedProvider
	}
	if ext.Binding(s.federated) == nil {
		return domain.ErrIdentityNotLinked
	}
	return nil
}

// welcome sends the welcome email to new users. Delivery failures are logged only.
// Two concurrent first sign-ins can both see isNewUser and both send it.
func (s *sessionService) welcome(ctx context.Context, res *ReconcileResult) {
	if s.email == nil || !res.IsNewUser || res.Profile == nil {
		return
	}
	name := res.Profile.Email
	if res.Profile.FullName != nil && *res.Profile.FullName != "" {
		name = *res.Profile.FullName
	}
	if err := s.email.SendWelcomeEmail(ctx, res.Profile.Email, name); err != nil {
		logger.From(ctx).Warn("welcome email failed",
			logger.ExternalID(res.Profile.ExternalID), logger.Err(err))
	}
}

// capSession applies the lifetime ceilings to a provider session. fallbackRefresh
// is kept when the provider did not rotate the refresh token.
func capSession(in *domain.Session, fallbackRefresh string, settings *domain.ProviderSettings) *domain.Session {
	if in == nil {
		return nil
	}
	out := *in
	if out.RefreshToken == "" {
		out.RefreshToken = fallbackRefresh
	}
	if out.TokenType == "" {
		out.TokenType = domain.DefaultTokenType
	}
	out.ExpiresIn = AccessTTL(in.ExpiresIn, settings)
	out.RefreshExpiresIn = RefreshTTL(settings)
	return &out
}
