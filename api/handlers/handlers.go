package handlers

import (
	"github.com/feichai0017/relevance-finder/internal/service/relevance"
	"github.com/feichai0017/relevance-finder/internal/utils/validator"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

type Handlers struct {
	Relevance *RelevanceHandler
	Health    *HealthHandler
}

func NewHandlers(
	relevanceService relevance.RelevanceService,
	pinger Pinger,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Relevance: NewRelevanceHandler(relevanceService, validator.NewRequestValidator(nil), logger),
		Health:    NewHealthHandler(pinger),
	}
}
