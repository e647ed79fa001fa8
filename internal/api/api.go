package api

import (
	"message-stats/internal/config"
	"message-stats/internal/model"
	"message-stats/internal/query"

	"github.com/google/uuid"
)

// Store is the slice of the repository the handlers need.
type Store interface {
	ListMessages() ([]model.Message, error)
	ListFiltered(f query.Filter) ([]model.Message, error)
	GetMessageByUUID(id uuid.UUID) (*model.Message, error)
	InsertMessage(m *model.Message) error
}

type API struct {
	Store Store
	Cfg   *config.Config
}

func NewAPI(store Store, cfg *config.Config) *API {
	return &API{
		Store: store,
		Cfg:   cfg,
	}
}
