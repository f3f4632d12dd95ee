package session

import (
	"fmt"
	"time"

	"rugged-weave-auth/config"
	"rugged-weave-auth/constants"
	authModel "rugged-weave-auth/models/auth"
	"rugged-weave-auth/telemetry"
	"rugged-weave-auth/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns server-side sessions and the access tokens minted from them.
// Every lifecycle transition is published with hashed identifiers only.
type Service struct {
	DB        *gorm.DB
	Publisher telemetry.Publisher

	jwtSecret      string
	sessionTTL     time.Duration
	accessTokenTTL time.Duration
}

func NewService(db *gorm.DB, publisher telemetry.Publisher, cfg *config.Config) *Service {
	return &Service{
		DB:             db,
		Publisher:      publisher,
		jwtSecret:      cfg.JWTSecret,
		sessionTTL:     cfg.SessionTTL,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// CreateSession opens a session for the user and mints an access token.
func (s *Service) CreateSession(user *authModel.User, c *fiber.Ctx) (*authModel.Session, string, error) {
	session := &authModel.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if c != nil {
		session.IPAddress = c.IP()
		session.UserAgent = c.Get("User-Agent")
	}

	if err := s.DB.Create(session).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.mintAccessToken(user, session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mint access token: %w", err)
	}

	s.publishSessionEvent(constants.EventSessionCreated, session, user)

	return session, accessToken, nil
}

// RefreshSession extends a session's expiry and mints a fresh access token.
func (s *Service) RefreshSession(token string, c *fiber.Ctx) (*authModel.Session, string, error) {
	session, err := s.FindSession(token)
	if err != nil {
		return nil, "", err
	}

	session.ExpiresAt = time.Now().Add(s.sessionTTL)
	if err := s.DB.Save(session).Error; err != nil {
		return nil, "", fmt.Errorf("failed to refresh session: %w", err)
	}

	accessToken, err := s.mintAccessToken(&session.User, session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mint access token: %w", err)
	}

	s.publishSessionEvent(constants.EventSessionUpdated, session, &session.User)

	return session, accessToken, nil
}

// DeleteSession closes a session. Deleting an unknown token is not an error.
func (s *Service) DeleteSession(token string) error {
	session, err := s.FindSession(token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	if err := s.DB.Delete(session).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.publishSessionEvent(constants.EventSessionDeleted, session, &session.User)

	return nil
}

// FindSession loads an unexpired session with its user by opaque token.
func (s *Service) FindSession(token string) (*authModel.Session, error) {
	var session authModel.Session
	err := s.DB.Preload("User").Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// PublishUserCreated emits the user lifecycle event with a hashed identity.
func (s *Service) PublishUserCreated(user *authModel.User, c *fiber.Ctx) {
	payload := map[string]interface{}{
		"email_hash": utils.HashIdentifier(utils.NormalizeEmail(user.Email)),
		"user_uuid":  user.Uuid,
	}
	addRequestMetadata(payload, c)
	s.Publisher.Publish(constants.EventUserCreated, payload)
}

func (s *Service) publishSessionEvent(event string, session *authModel.Session, user *authModel.User) {
	payload := map[string]interface{}{
		"session_hash": utils.HashIdentifier(session.Token),
		"email_hash":   utils.HashIdentifier(utils.NormalizeEmail(user.Email)),
	}
	if session.IPAddress != "" {
		payload["ip"] = session.IPAddress
	}
	if session.UserAgent != "" {
		payload["user_agent"] = session.UserAgent
	}
	s.Publisher.Publish(event, payload)
}

func (s *Service) mintAccessToken(user *authModel.User, session *authModel.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.Uuid,
		"sid": utils.HashIdentifier(session.Token),
		"exp": time.Now().Add(s.accessTokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func addRequestMetadata(payload map[string]interface{}, c *fiber.Ctx) {
	if c == nil {
		return
	}
	if ip := c.IP(); ip != "" {
		payload["ip"] = ip
	}
	if ua := c.Get("User-Agent"); ua != "" {
		payload["user_agent"] = ua
	}
}
