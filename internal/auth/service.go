// Package auth implements login, registration and logout on top of the
// request client and the session token slot.
package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/nhle/todo-client/internal/api"
	"github.com/nhle/todo-client/internal/model"
)

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 6

// User-facing messages.
const (
	MsgMissingFields     = "Please enter email and password"
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgShortPassword     = "Password must be at least 6 characters"
	MsgInvalidLogin      = "Invalid email or password"
	MsgLoginUnavailable  = "Something went wrong. Please try again later."
	MsgLoggedIn          = "Logged in"
	MsgRegisterFailed    = "Registration failed"
	MsgRegisterTransport = "Something went wrong during the request."
	MsgRegistered        = "Registration successful"
	MsgSessionNotSaved   = "Could not save the session"
)

// API is the subset of the request client used for authentication.
type API interface {
	Login(ctx context.Context, creds model.Credentials) api.Result[api.LoginResponse]
	Register(ctx context.Context, creds model.Credentials) api.Result[api.RegisterResponse]
}

// Session is the token slot the service writes to.
type Session interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
	Active() bool
}

// Service performs the authentication flows.
type Service struct {
	api     API
	session Session
	logger  *slog.Logger
}

// NewService creates a Service. A nil logger selects slog.Default.
func NewService(client API, session Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: client, session: session, logger: logger}
}

// Login validates the credentials, exchanges them for a token and stores
// it. Nothing is stored unless the server returned a token.
func (s *Service) Login(ctx context.Context, email, password string) model.Outcome {
	creds, out := normalize(email, password)
	if !out.OK {
		return out
	}

	res := s.api.Login(ctx, creds)
	if !res.Status {
		if res.Transport() {
			return model.Failed(model.FailureTransport, MsgLoginUnavailable)
		}
		return model.Failed(model.FailureServer, serverMessage(res.Message, MsgInvalidLogin))
	}
	if strings.TrimSpace(res.Data.Token) == "" {
		return model.Failed(model.FailureServer, orDefault(res.Data.Message, MsgInvalidLogin))
	}

	if err := s.session.SetToken(res.Data.Token); err != nil {
		s.logger.Error("storing session token", "error", err)
		return model.Failed(model.FailureStorage, MsgSessionNotSaved)
	}

	s.logger.Info("logged in", "email", creds.Email)
	return model.Succeeded(orDefault(res.Data.Message, MsgLoggedIn))
}

// Register validates the credentials and creates an account. It succeeds
// only when the server's status flag is set. No token is stored.
func (s *Service) Register(ctx context.Context, email, password string) model.Outcome {
	creds, out := normalize(email, password)
	if !out.OK {
		return out
	}
	if len([]rune(creds.Password)) < MinPasswordLength {
		return model.Failed(model.FailureValidation, MsgShortPassword)
	}

	res := s.api.Register(ctx, creds)
	if !res.Status {
		if res.Transport() {
			return model.Failed(model.FailureTransport, MsgRegisterTransport)
		}
		return model.Failed(model.FailureServer, serverMessage(res.Message, MsgRegisterFailed))
	}
	if !res.Data.Status {
		return model.Failed(model.FailureServer, orDefault(res.Data.Message, MsgRegisterFailed))
	}

	s.logger.Info("registered", "email", creds.Email)
	return model.Succeeded(orDefault(res.Data.Message, MsgRegistered))
}

// Logout removes the stored token.
func (s *Service) Logout() error {
	return s.session.ClearToken()
}

// LoggedIn reports whether a usable token is stored. An expired token is
// cleared.
func (s *Service) LoggedIn() bool {
	if s.session.Active() {
		return true
	}
	if s.session.Token() == "" {
		return false
	}
	if err := s.session.ClearToken(); err != nil {
		s.logger.Warn("clearing expired session token", "error", err)
	}
	return false
}

// normalize trims and lower-cases the email and checks both fields.
func normalize(email, password string) (model.Credentials, model.Outcome) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.Credentials{}, model.Failed(model.FailureValidation, MsgMissingFields)
	}
	if !validEmail(email) {
		return model.Credentials{}, model.Failed(model.FailureValidation, MsgInvalidEmail)
	}
	return model.Credentials{Email: email, Password: password}, model.Succeeded("")
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// serverMessage replaces the generic fallback with an operation-specific
// one.
func serverMessage(msg, fallback string) string {
	if msg == "" || msg == api.FallbackMessage {
		return fallback
	}
	return msg
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
