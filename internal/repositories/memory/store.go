// Package memory is an in-process implementation of every store port. A
// transaction snapshots the whole store and restores it on failure; ids come
// from one sequence that is never rolled back, matching postgres sequences.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"net/http"
	"slices"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/thistle/pkg/models"
)

const (
	OpInsertRelationship            = "relationship.insert"
	OpDeleteRelationships           = "relationship.delete"
	OpInsertRelationshipRestriction = "relationship_restriction.insert"
	OpDeleteRelationshipRestriction = "relationship_restriction.delete"
	OpInsertActiveValue             = "active_value.insert"
	OpUpdateActiveValue             = "active_value.update"
	OpInsertPrisonerRestriction     = "prisoner_restriction.insert"
	OpDeletePrisonerRestrictions    = "prisoner_restriction.delete"
)

type txKey struct{}

type state struct {
	relationships            map[int64]models.Relationship
	relationshipRestrictions map[int64]models.RelationshipRestriction
	activeValues             map[models.ActiveValueKind]map[int64]models.ActiveValue
	prisonerRestrictions     map[int64]models.PrisonerRestriction

	contacts            map[int64]models.Contact
	phones              map[int64]models.ContactPhone
	addresses           map[int64]models.ContactAddress
	addressPhones       map[int64]models.ContactAddressPhone
	emails              map[int64]models.ContactEmail
	identities          map[int64]models.ContactIdentity
	employments         map[int64]models.ContactEmployment
	contactRestrictions map[int64]models.ContactRestriction

	referenceCodes map[models.CodeRef]bool
}

func newState() *state {
	return &state{
		relationships:            map[int64]models.Relationship{},
		relationshipRestrictions: map[int64]models.RelationshipRestriction{},
		activeValues: map[models.ActiveValueKind]map[int64]models.ActiveValue{
			models.ActiveValueDomesticStatus:   {},
			models.ActiveValueNumberOfChildren: {},
		},
		prisonerRestrictions: map[int64]models.PrisonerRestriction{},
		contacts:             map[int64]models.Contact{},
		phones:               map[int64]models.ContactPhone{},
		addresses:            map[int64]models.ContactAddress{},
		addressPhones:        map[int64]models.ContactAddressPhone{},
		emails:               map[int64]models.ContactEmail{},
		identities:           map[int64]models.ContactIdentity{},
		employments:          map[int64]models.ContactEmployment{},
		contactRestrictions:  map[int64]models.ContactRestriction{},
		referenceCodes:       map[models.CodeRef]bool{},
	}
}

// clone copies every map. Rows are values and are never mutated through
// their pointer fields, so sharing those is safe.
func (s *state) clone() *state {
	activeValues := make(map[models.ActiveValueKind]map[int64]models.ActiveValue, len(s.activeValues))
	for kind, rows := range s.activeValues {
		activeValues[kind] = maps.Clone(rows)
	}
	return &state{
		relationships:            maps.Clone(s.relationships),
		relationshipRestrictions: maps.Clone(s.relationshipRestrictions),
		activeValues:             activeValues,
		prisonerRestrictions:     maps.Clone(s.prisonerRestrictions),
		contacts:                 maps.Clone(s.contacts),
		phones:                   maps.Clone(s.phones),
		addresses:                maps.Clone(s.addresses),
		addressPhones:            maps.Clone(s.addressPhones),
		emails:                   maps.Clone(s.emails),
		identities:               maps.Clone(s.identities),
		employments:              maps.Clone(s.employments),
		contactRestrictions:      maps.Clone(s.contactRestrictions),
		referenceCodes:           maps.Clone(s.referenceCodes),
	}
}

type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID int64
	state  *state
	faults map[string]error
}

func NewStore() *Store {
	return &Store{
		state:  newState(),
		faults: map[string]error{},
	}
}

// RunInTx serializes transactions. Calls made with a ctx that already belongs
// to a transaction join it.
func (s *Store) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// FailOn makes every later call of op return err until ClearFaults.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

// LastID is the most recently allocated id.
func (s *Store) LastID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// fault and allocateID expect s.mu to be held.
func (s *Store) fault(op string) error {
	return s.faults[op]
}

func (s *Store) allocateID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Relationships() *RelationshipStore {
	return &RelationshipStore{s}
}

func (s *Store) RelationshipRestrictions() *RelationshipRestrictionStore {
	return &RelationshipRestrictionStore{s}
}

func (s *Store) ActiveValues() *ActiveValueStore {
	return &ActiveValueStore{s}
}

func (s *Store) PrisonerRestrictions() *PrisonerRestrictionStore {
	return &PrisonerRestrictionStore{s}
}

func (s *Store) Contacts() *ContactStore {
	return &ContactStore{s}
}

func (s *Store) ReferenceCodes() *ReferenceCodeStore {
	return &ReferenceCodeStore{s}
}

// collect returns the rows kept by keep, ordered by id.
func collect[T any](rows map[int64]T, keep func(T) bool) []T {
	out := []T{}
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		if row := rows[id]; keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func notFound(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusNotFound, format, args...)
}
