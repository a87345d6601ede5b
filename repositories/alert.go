package repositories

import (
	"log/slog"
	"time"

	"github.com/samber/lo"

	"talkboard/contract"
	"talkboard/domain"
	"talkboard/errors"
)

type IAlertRepository interface {
	Create(a domain.EmergencyAlert) error
	Get(id string) (domain.EmergencyAlert, error)
	Active() []domain.EmergencyAlert
	Transition(id string, to domain.AlertStatus, at time.Time) (domain.EmergencyAlert, error)
}

type AlertRepository struct {
	records *Collection[domain.EmergencyAlert]
}

func NewAlertRepository(store contract.Store, log *slog.Logger) *AlertRepository {
	return &AlertRepository{
		records: NewCollection[domain.EmergencyAlert](domain.CollectionAlerts, store, log),
	}
}

func (r *AlertRepository) Create(a domain.EmergencyAlert) error {
	return r.records.Update(func(alerts []domain.EmergencyAlert) ([]domain.EmergencyAlert, error) {
		return append(alerts, a), nil
	})
}

func (r *AlertRepository) Get(id string) (domain.EmergencyAlert, error) {
	a, found := lo.Find(r.records.Load(), func(a domain.EmergencyAlert) bool {
		return a.ID == id
	})
	if !found {
		return domain.EmergencyAlert{}, errors.ErrAlertNotFound
	}
	return a, nil
}

func (r *AlertRepository) Active() []domain.EmergencyAlert {
	return lo.Filter(r.records.Load(), func(a domain.EmergencyAlert, _ int) bool {
		return a.Status == domain.AlertActive
	})
}

// Transition moves an alert to resolved or cancelled. Resolved and
// cancelled are terminal: once there, no further transition is allowed.
func (r *AlertRepository) Transition(id string, to domain.AlertStatus, at time.Time) (domain.EmergencyAlert, error) {
	var updated domain.EmergencyAlert
	err := r.records.Update(func(alerts []domain.EmergencyAlert) ([]domain.EmergencyAlert, error) {
		for i := range alerts {
			if alerts[i].ID != id {
				continue
			}
			if alerts[i].Status.Terminal() {
				return nil, errors.ErrTerminalState
			}
			alerts[i].Status = to
			switch to {
			case domain.AlertResolved:
				alerts[i].ResolvedAt = &at
			case domain.AlertCancelled:
				alerts[i].CancelledAt = &at
			}
			updated = alerts[i]
			return alerts, nil
		}
		return nil, errors.ErrAlertNotFound
	})
	if err != nil {
		return domain.EmergencyAlert{}, err
	}
	return updated, nil
}
