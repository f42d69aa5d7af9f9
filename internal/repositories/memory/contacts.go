package memory

import (
	"context"

	"github.com/Ramsey-B/thistle/pkg/models"
)

// ContactStore is read-only through the store ports. The Add methods stand in
// for the CRUD sync when seeding local data and tests.
type ContactStore struct {
	s *Store
}

func (c *ContactStore) Get(_ context.Context, contactID int64) (*models.Contact, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	contact, ok := c.s.state.contacts[contactID]
	if !ok {
		return nil, nil
	}
	return &contact, nil
}

func byContact[T any](contactID int64, id func(T) int64) func(T) bool {
	return func(row T) bool { return id(row) == contactID }
}

func (c *ContactStore) ListPhones(_ context.Context, contactID int64) ([]models.ContactPhone, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.phones, byContact(contactID, func(p models.ContactPhone) int64 { return p.ContactID })), nil
}

func (c *ContactStore) ListAddresses(_ context.Context, contactID int64) ([]models.ContactAddress, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.addresses, byContact(contactID, func(a models.ContactAddress) int64 { return a.ContactID })), nil
}

func (c *ContactStore) ListAddressPhones(_ context.Context, contactID int64) ([]models.ContactAddressPhone, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.addressPhones, byContact(contactID, func(a models.ContactAddressPhone) int64 { return a.ContactID })), nil
}

func (c *ContactStore) ListEmails(_ context.Context, contactID int64) ([]models.ContactEmail, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.emails, byContact(contactID, func(e models.ContactEmail) int64 { return e.ContactID })), nil
}

func (c *ContactStore) ListIdentities(_ context.Context, contactID int64) ([]models.ContactIdentity, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.identities, byContact(contactID, func(i models.ContactIdentity) int64 { return i.ContactID })), nil
}

func (c *ContactStore) ListEmployments(_ context.Context, contactID int64) ([]models.ContactEmployment, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.employments, byContact(contactID, func(e models.ContactEmployment) int64 { return e.ContactID })), nil
}

func (c *ContactStore) ListRestrictions(_ context.Context, contactID int64) ([]models.ContactRestriction, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return collect(c.s.state.contactRestrictions, byContact(contactID, func(r models.ContactRestriction) int64 { return r.ContactID })), nil
}

func (c *ContactStore) AddContact(contact models.Contact) models.Contact {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for {
		contact.ID = c.s.allocateID()
		if _, taken := c.s.state.contacts[contact.ID]; !taken {
			break
		}
	}
	c.s.state.contacts[contact.ID] = contact
	return contact
}

// Seed registers bare contacts under fixed ids so relationships can reference them.
func (c *ContactStore) Seed(ids ...int64) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := c.s.state.contacts[id]; !ok {
			c.s.state.contacts[id] = models.Contact{ID: id, CreatedBy: "SYS"}
		}
	}
}

func (c *ContactStore) AddPhone(phone models.ContactPhone) models.ContactPhone {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	phone.ID = c.s.allocateID()
	c.s.state.phones[phone.ID] = phone
	return phone
}

func (c *ContactStore) AddAddress(address models.ContactAddress) models.ContactAddress {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	address.ID = c.s.allocateID()
	c.s.state.addresses[address.ID] = address
	return address
}

// AddAddressPhone scopes an existing phone to an existing address.
func (c *ContactStore) AddAddressPhone(link models.ContactAddressPhone) models.ContactAddressPhone {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	link.ID = c.s.allocateID()
	c.s.state.addressPhones[link.ID] = link
	return link
}

func (c *ContactStore) AddEmail(email models.ContactEmail) models.ContactEmail {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	email.ID = c.s.allocateID()
	c.s.state.emails[email.ID] = email
	return email
}

func (c *ContactStore) AddIdentity(identity models.ContactIdentity) models.ContactIdentity {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	identity.ID = c.s.allocateID()
	c.s.state.identities[identity.ID] = identity
	return identity
}

func (c *ContactStore) AddEmployment(employment models.ContactEmployment) models.ContactEmployment {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	employment.ID = c.s.allocateID()
	c.s.state.employments[employment.ID] = employment
	return employment
}

func (c *ContactStore) AddRestriction(restriction models.ContactRestriction) models.ContactRestriction {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	restriction.ID = c.s.allocateID()
	c.s.state.contactRestrictions[restriction.ID] = restriction
	return restriction
}

type ReferenceCodeStore struct {
	s *Store
}

func (r *ReferenceCodeStore) IsValidCode(_ context.Context, group, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.referenceCodes[models.CodeRef{Group: group, Code: code}], nil
}

func (r *ReferenceCodeStore) Seed(group string, codes ...string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, code := range codes {
		r.s.state.referenceCodes[models.CodeRef{Group: group, Code: code}] = true
	}
}
