package utils

import (
	"testing"

	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := models.SyncRelationship{
		SourceID:         1,
		ContactID:        2,
		PrisonerNumber:   "A1234BC",
		RelationshipType: models.RelationshipTypeSocial,
		SubType:          "FRI",
	}

	testCases := []struct {
		name    string
		input   models.MergeRelationshipsRequest
		wantErr string
	}{
		{
			name:  "valid",
			input: models.MergeRelationshipsRequest{RetainedPrisonerNumber: "A1111AA", RemovedPrisonerNumber: "A2222AA", Relationships: []models.SyncRelationship{valid}},
		},
		{
			name:    "missing retained",
			input:   models.MergeRelationshipsRequest{RemovedPrisonerNumber: "A2222AA"},
			wantErr: "retainedPrisonerNumber failed 'required'",
		},
		{
			name:    "same prisoner",
			input:   models.MergeRelationshipsRequest{RetainedPrisonerNumber: "A1111AA", RemovedPrisonerNumber: "A1111AA"},
			wantErr: "removedPrisonerNumber failed 'nefield=RetainedPrisonerNumber'",
		},
		{
			name: "bad relationship type",
			input: models.MergeRelationshipsRequest{
				RetainedPrisonerNumber: "A1111AA",
				RemovedPrisonerNumber:  "A2222AA",
				Relationships: []models.SyncRelationship{{
					SourceID: 1, ContactID: 2, PrisonerNumber: "A1111AA", RelationshipType: "X", SubType: "FRI",
				}},
			},
			wantErr: "relationships[0].relationshipType failed 'oneof=S O'",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Validate(testCase.input)
			if testCase.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, testCase.wantErr)
		})
	}
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("3", "numeric"))
	assert.EqualError(t, ValidateValue("three", "numeric"), "value failed 'numeric'")
	assert.EqualError(t, ValidateValue("A1234BC!", "required,alphanum,max=10"), "value failed 'alphanum'")
}
