package consolidation

import (
	"github.com/Ramsey-B/thistle/pkg/models"
)

// ResolveApproval finds the approval provenance to carry onto a recreated
// relationship. prior is every relationship that existed before the wipe.
//
// A prior row matches on contact, prisoner number, relationship type and
// sub-type, and must have recorded who approved it. Nothing is returned when
// incoming is not an approved visitor or no prior row matches. Among matches
// the most recent approval wins, then the highest id.
func ResolveApproval(prior []models.Relationship, incoming models.SyncRelationship) *models.ApprovalProvenance {
	if !incoming.ApprovedVisitor {
		return nil
	}

	var best *models.Relationship
	for i := range prior {
		candidate := &prior[i]
		if !matchesApproval(candidate, incoming) {
			continue
		}
		if best == nil || preferApproval(candidate, best) {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	return &models.ApprovalProvenance{
		ApprovedBy:   *best.ApprovedBy,
		ApprovedTime: *best.ApprovedTime,
	}
}

func matchesApproval(candidate *models.Relationship, incoming models.SyncRelationship) bool {
	return candidate.ApprovedVisitor &&
		candidate.ApprovedBy != nil &&
		candidate.ApprovedTime != nil &&
		candidate.ContactID == incoming.ContactID &&
		candidate.PrisonerNumber == incoming.PrisonerNumber &&
		candidate.RelationshipType == incoming.RelationshipType &&
		candidate.RelationshipSubType == incoming.SubType
}

func preferApproval(candidate, best *models.Relationship) bool {
	if !candidate.ApprovedTime.Equal(*best.ApprovedTime) {
		return candidate.ApprovedTime.After(*best.ApprovedTime)
	}
	return candidate.ID > best.ID
}
