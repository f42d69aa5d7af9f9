package memory

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/thistle/pkg/models"
)

type ActiveValueStore struct {
	s *Store
}

func (a *ActiveValueStore) rows(kind models.ActiveValueKind) (map[int64]models.ActiveValue, error) {
	rows, ok := a.s.state.activeValues[kind]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "unknown value kind %s", kind)
	}
	return rows, nil
}

func (a *ActiveValueStore) GetActive(_ context.Context, kind models.ActiveValueKind, prisonerNumber string) (*models.ActiveValue, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	rows, err := a.rows(kind)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Active && row.PrisonerNumber == prisonerNumber {
			out := row
			return &out, nil
		}
	}
	return nil, nil
}

func (a *ActiveValueStore) ListByPrisoner(_ context.Context, kind models.ActiveValueKind, prisonerNumber string) ([]models.ActiveValue, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	rows, err := a.rows(kind)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row models.ActiveValue) bool {
		return row.PrisonerNumber == prisonerNumber
	}), nil
}

func (a *ActiveValueStore) Insert(_ context.Context, kind models.ActiveValueKind, value *models.ActiveValue) (*models.ActiveValue, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.fault(OpInsertActiveValue); err != nil {
		return nil, err
	}
	rows, err := a.rows(kind)
	if err != nil {
		return nil, err
	}
	if value.Active && hasActive(rows, value.PrisonerNumber, 0) {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "prisoner %s already has an active %s", value.PrisonerNumber, kind)
	}

	out := *value
	out.ID = a.s.allocateID()
	rows[out.ID] = out
	return &out, nil
}

func (a *ActiveValueStore) SetActive(_ context.Context, kind models.ActiveValueKind, id int64, active bool) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.fault(OpUpdateActiveValue); err != nil {
		return err
	}
	rows, err := a.rows(kind)
	if err != nil {
		return err
	}
	row, ok := rows[id]
	if !ok {
		return notFound("%s %d not found", kind, id)
	}
	if active && hasActive(rows, row.PrisonerNumber, id) {
		return httperror.NewHTTPErrorf(http.StatusConflict, "prisoner %s already has an active %s", row.PrisonerNumber, kind)
	}
	row.Active = active
	rows[id] = row
	return nil
}

func (a *ActiveValueStore) Reparent(_ context.Context, kind models.ActiveValueKind, ids []int64, prisonerNumber string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := a.s.fault(OpUpdateActiveValue); err != nil {
		return err
	}
	rows, err := a.rows(kind)
	if err != nil {
		return err
	}

	moving := ectolinq.Filter(ids, func(id int64) bool {
		_, ok := rows[id]
		return ok
	})
	if len(moving) == 0 {
		return notFound("%s not found for %s", kind, prisonerNumber)
	}
	for _, id := range moving {
		if rows[id].Active && hasActive(rows, prisonerNumber, id) {
			return httperror.NewHTTPErrorf(http.StatusConflict, "prisoner %s already has an active %s", prisonerNumber, kind)
		}
	}
	for _, id := range moving {
		row := rows[id]
		row.PrisonerNumber = prisonerNumber
		rows[id] = row
	}
	return nil
}

func hasActive(rows map[int64]models.ActiveValue, prisonerNumber string, exceptID int64) bool {
	for id, row := range rows {
		if id != exceptID && row.Active && row.PrisonerNumber == prisonerNumber {
			return true
		}
	}
	return false
}

type PrisonerRestrictionStore struct {
	s *Store
}

func (p *PrisonerRestrictionStore) ListByPrisoner(_ context.Context, prisonerNumber string) ([]models.PrisonerRestriction, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return collect(p.s.state.prisonerRestrictions, func(restriction models.PrisonerRestriction) bool {
		return restriction.PrisonerNumber == prisonerNumber
	}), nil
}

func (p *PrisonerRestrictionStore) Insert(_ context.Context, restriction *models.PrisonerRestriction) (*models.PrisonerRestriction, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.s.fault(OpInsertPrisonerRestriction); err != nil {
		return nil, err
	}

	out := *restriction
	out.ID = p.s.allocateID()
	p.s.state.prisonerRestrictions[out.ID] = out
	return &out, nil
}

func (p *PrisonerRestrictionStore) DeleteByPrisoner(_ context.Context, prisonerNumber string) (int64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.s.fault(OpDeletePrisonerRestrictions); err != nil {
		return 0, err
	}

	var deleted int64
	for id, restriction := range p.s.state.prisonerRestrictions {
		if restriction.PrisonerNumber == prisonerNumber {
			delete(p.s.state.prisonerRestrictions, id)
			deleted++
		}
	}
	return deleted, nil
}
