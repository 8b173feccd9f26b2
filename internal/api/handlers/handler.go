package handlers

import (
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/platform"
	"github.com/fmachado/propstack/internal/pool"
)

type Handler struct {
	service *platform.Service
	pools   *pool.Manager
	logger  *zap.Logger
}

func NewHandler(service *platform.Service, pools *pool.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		pools:   pools,
		logger:  logger,
	}
}
