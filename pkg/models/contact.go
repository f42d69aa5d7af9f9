package models

import "time"

// Contact and its sub-entities are maintained by the CRUD sync. The merge
// engine only reads them when building a reconciliation snapshot.
type Contact struct {
	ID                  int64      `json:"contactId" db:"contact_id"`
	Title               *string    `json:"title,omitempty" db:"title"`
	LastName            string     `json:"lastName" db:"last_name"`
	FirstName           string     `json:"firstName" db:"first_name"`
	MiddleNames         *string    `json:"middleNames,omitempty" db:"middle_names"`
	DateOfBirth         *LocalDate `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	DeceasedDate        *LocalDate `json:"deceasedDate,omitempty" db:"deceased_date"`
	IsStaff             bool       `json:"staffFlag" db:"staff_flag"`
	Gender              *string    `json:"gender,omitempty" db:"gender"`
	DomesticStatus      *string    `json:"domesticStatus,omitempty" db:"domestic_status"`
	LanguageCode        *string    `json:"languageCode,omitempty" db:"language_code"`
	InterpreterRequired bool       `json:"interpreterRequired" db:"interpreter_required"`
	CreatedBy           string     `json:"createdBy" db:"created_by"`
	CreatedTime         time.Time  `json:"createdTime" db:"created_time"`
}

type ContactPhone struct {
	ID          int64   `json:"contactPhoneId" db:"contact_phone_id"`
	ContactID   int64   `json:"contactId" db:"contact_id"`
	PhoneType   string  `json:"phoneType" db:"phone_type"`
	PhoneNumber string  `json:"phoneNumber" db:"phone_number"`
	ExtNumber   *string `json:"extNumber,omitempty" db:"ext_number"`
}

type ContactAddress struct {
	ID             int64      `json:"contactAddressId" db:"contact_address_id"`
	ContactID      int64      `json:"contactId" db:"contact_id"`
	AddressType    *string    `json:"addressType,omitempty" db:"address_type"`
	PrimaryAddress bool       `json:"primaryAddress" db:"primary_address"`
	Flat           *string    `json:"flat,omitempty" db:"flat"`
	Property       *string    `json:"property,omitempty" db:"property"`
	Street         *string    `json:"street,omitempty" db:"street"`
	Area           *string    `json:"area,omitempty" db:"area"`
	CityCode       *string    `json:"cityCode,omitempty" db:"city_code"`
	CountyCode     *string    `json:"countyCode,omitempty" db:"county_code"`
	PostCode       *string    `json:"postcode,omitempty" db:"post_code"`
	CountryCode    *string    `json:"countryCode,omitempty" db:"country_code"`
	Verified       bool       `json:"verified" db:"verified"`
	MailFlag       bool       `json:"mailFlag" db:"mail_flag"`
	NoFixedAddress bool       `json:"noFixedAddress" db:"no_fixed_address"`
	StartDate      *LocalDate `json:"startDate,omitempty" db:"start_date"`
	EndDate        *LocalDate `json:"endDate,omitempty" db:"end_date"`
	Comments       *string    `json:"comments,omitempty" db:"comments"`
}

// ContactAddressPhone scopes a ContactPhone to one address.
type ContactAddressPhone struct {
	ID               int64 `json:"contactAddressPhoneId" db:"contact_address_phone_id"`
	ContactID        int64 `json:"contactId" db:"contact_id"`
	ContactAddressID int64 `json:"contactAddressId" db:"contact_address_id"`
	ContactPhoneID   int64 `json:"contactPhoneId" db:"contact_phone_id"`
}

type ContactEmail struct {
	ID           int64  `json:"contactEmailId" db:"contact_email_id"`
	ContactID    int64  `json:"contactId" db:"contact_id"`
	EmailAddress string `json:"emailAddress" db:"email_address"`
}

type ContactIdentity struct {
	ID               int64   `json:"contactIdentityId" db:"contact_identity_id"`
	ContactID        int64   `json:"contactId" db:"contact_id"`
	IdentityType     string  `json:"identityType" db:"identity_type"`
	IdentityValue    string  `json:"identityValue" db:"identity_value"`
	IssuingAuthority *string `json:"issuingAuthority,omitempty" db:"issuing_authority"`
}

type ContactEmployment struct {
	ID             int64 `json:"employmentId" db:"employment_id"`
	ContactID      int64 `json:"contactId" db:"contact_id"`
	OrganisationID int64 `json:"organisationId" db:"organisation_id"`
	Active         bool  `json:"active" db:"active"`
}

type ContactRestriction struct {
	ID              int64      `json:"contactRestrictionId" db:"contact_restriction_id"`
	ContactID       int64      `json:"contactId" db:"contact_id"`
	RestrictionType string     `json:"restrictionType" db:"restriction_type"`
	StartDate       *LocalDate `json:"startDate,omitempty" db:"start_date"`
	ExpiryDate      *LocalDate `json:"expiryDate,omitempty" db:"expiry_date"`
	Comments        *string    `json:"comments,omitempty" db:"comments"`
}
