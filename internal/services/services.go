package services

import (
	"fmt"

	"go.uber.org/zap"

	"goaspect/pkg/logger"
)

// Interfaces remain the same
type UserService interface {
	GetUser(id int) string
}

type EmailService interface {
	SendEmail(to, message string) error
}

type ConfigService interface {
	GetConfig() string
}

// UserService implementation with lifecycle hooks
type userService struct {
	prefix string
	log    *zap.SugaredLogger
}

func NewUserService() UserService {
	log := logger.Get()
	log.Infow("Creating new UserService", "prefix", "USER-")
	return &userService{
		prefix: "USER-",
		log:    log,
	}
}

func (s *userService) PostConstruct() error {
	s.log.Info("PostConstruct: Initializing UserService")
	return nil
}

func (s *userService) PreDestroy() error {
	s.log.Info("PreDestroy: Cleaning up UserService")
	return nil
}

func (s *userService) GetUser(id int) string {
	result := fmt.Sprintf("%s%d", s.prefix, id)
	s.log.Infow("Getting user",
		"id", id,
		"prefix", s.prefix,
		"result", result)
	return result
}

// EmailService implementation with lifecycle and retry
type emailService struct {
	server     string
	log        *zap.SugaredLogger
	retryCount int `di:"retry-count"`
}

func NewEmailService() EmailService {
	log := logger.Get()
	log.Infow("Creating new EmailService", "server", "smtp.example.com")
	return &emailService{
		server:     "smtp.example.com",
		log:        log,
		retryCount: 3,
	}
}

func (s *emailService) PostConstruct() error {
	s.log.Info("PostConstruct: Initializing EmailService")
	if s.retryCount == 0 {
		s.retryCount = 3 // default retry count
	}
	return nil
}

func (s *emailService) PreDestroy() error {
	s.log.Info("PreDestroy: Cleaning up EmailService")
	return nil
}

func (s *emailService) SendEmail(to, message string) error {
	s.log.Infow("Sending email",
		"to", to,
		"server", s.server,
		"messageLength", len(message),
		"retryCount", s.retryCount)

	for attempt := 0; attempt < s.retryCount; attempt++ {
		s.log.Debugw("Sending attempt",
			"attempt", attempt+1,
			"to", to)

		fmt.Printf("Sending email to %s via %s: %s\n", to, s.server, message)

		s.log.Infow("Email sent successfully",
			"to", to,
			"server", s.server,
			"attempt", attempt+1)
		return nil
	}

	return fmt.Errorf("failed to send email after %d attempts", s.retryCount)
}

// ConfigService implementation with profiles
type configService struct {
	env      string
	log      *zap.SugaredLogger
	profiles []string
}

func NewConfigService() ConfigService {
	log := logger.Get()
	log.Infow("Creating new ConfigService", "environment", "development")
	return &configService{
		env: "development",
		log: log,
	}
}

func (s *configService) PostConstruct() error {
	s.log.Info("PostConstruct: Initializing ConfigService")
	if len(s.profiles) > 0 {
		s.env = s.profiles[0]
	}
	return nil
}

func (s *configService) PreDestroy() error {
	s.log.Info("PreDestroy: Cleaning up ConfigService")
	return nil
}

func (s *configService) GetConfig() string {
	result := fmt.Sprintf("Environment: %s", s.env)
	s.log.Infow("Getting config",
		"environment", s.env,
		"result", result)
	return result
}
