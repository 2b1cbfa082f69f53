package authinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/logx"
)

// InvitationExpirer marca como expiradas las invitaciones vencidas
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// CleanupService servicio de limpieza en background
type CleanupService struct {
	tokenRepo   auth.TokenRepository
	invitations InvitationExpirer
	interval    time.Duration
}

// NewCleanupService crea un nuevo servicio de limpieza
func NewCleanupService(
	tokenRepo auth.TokenRepository,
	invitations InvitationExpirer,
	interval time.Duration,
) *CleanupService {
	return &CleanupService{
		tokenRepo:   tokenRepo,
		invitations: invitations,
		interval:    interval,
	}
}

// Start inicia el servicio de limpieza. Bloquea hasta que ctx termine.
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Ejecutar limpieza inicial
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("Cleanup service stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta las tareas de limpieza
func (s *CleanupService) RunOnce(ctx context.Context) {
	logx.Debug("Running cleanup tasks...")

	// Limpiar refresh tokens expirados
	if err := s.tokenRepo.CleanExpiredTokens(ctx); err != nil {
		logx.Errorf("Error cleaning expired tokens: %v", err)
	}

	if s.invitations != nil {
		expired, err := s.invitations.ExpireStale(ctx)
		if err != nil {
			logx.Errorf("Error expiring invitations: %v", err)
		} else if expired > 0 {
			logx.Infof("Expired %d invitations", expired)
		}
	}

	logx.Debug("Cleanup tasks completed")
}
