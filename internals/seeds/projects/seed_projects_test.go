package projects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoguard_backend/internals/features/field/projects/model"
)

func TestProjectSeed_ToModel(t *testing.T) {
	s := ProjectSeed{
		Name:     "Mangrove",
		Location: "Muara Angke",
		Sites:    []SiteSeed{{Name: "Pos", Latitude: -6.1, Longitude: 106.7}},
		Contributors: []ContributorSeed{
			{UserID: "6f1c2b7e-3a44-4b1d-9f0e-2d8a51c3e901", Name: "Staf", Role: "ngo_staff"},
		},
	}
	p, err := s.ToModel()
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, p.ProjectStatus)
	require.Len(t, p.ProjectSites, 1)
	assert.Equal(t, p.ProjectID, p.ProjectSites[0].ProjectSiteProjectID)
	require.Len(t, p.ProjectContributors, 1)
	assert.Equal(t, model.ContributorRoleNGOStaff, p.ProjectContributors[0].ProjectContributorRole)
}

func TestProjectSeed_ToModelRejectsBadInput(t *testing.T) {
	_, err := ProjectSeed{}.ToModel()
	assert.Error(t, err)

	_, err = ProjectSeed{Name: "x", Contributors: []ContributorSeed{{UserID: "bukan-uuid"}}}.ToModel()
	assert.Error(t, err)

	_, err = ProjectSeed{Name: "x", Contributors: []ContributorSeed{{UserID: "6f1c2b7e-3a44-4b1d-9f0e-2d8a51c3e901", Role: "ketua"}}}.ToModel()
	assert.Error(t, err)
}
