package models

const (
	GroupSocialRelationship   = "SOCIAL_RELATIONSHIP"
	GroupOfficialRelationship = "OFFICIAL_RELATIONSHIP"
	GroupRestriction          = "RESTRICTION"
	GroupDomesticStatus       = "DOMESTIC_STS"
)

// CodeRef is a coded value to be checked against reference data.
type CodeRef struct {
	Group string
	Code  string
}

// SubTypeGroup is the reference group holding the sub-types of relationshipType.
func SubTypeGroup(relationshipType string) string {
	if relationshipType == RelationshipTypeOfficial {
		return GroupOfficialRelationship
	}
	return GroupSocialRelationship
}

// CodeRefs lists the coded values of r and its restrictions.
func (r SyncRelationship) CodeRefs() []CodeRef {
	refs := []CodeRef{{Group: SubTypeGroup(r.RelationshipType), Code: r.SubType}}
	for _, restriction := range r.Restrictions {
		refs = append(refs, CodeRef{Group: GroupRestriction, Code: restriction.RestrictionType})
	}
	return refs
}

func (r SyncPrisonerRestriction) CodeRefs() []CodeRef {
	return []CodeRef{{Group: GroupRestriction, Code: r.RestrictionType}}
}
