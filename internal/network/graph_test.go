package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizray/registry-cli/internal/model"
)

// fakeDirectory serves canned companies and connections.
type fakeDirectory struct {
	companies map[string]*model.Company
	atAddress []model.CompanySummary
	byPartner []model.CompanySummary
}

func (f *fakeDirectory) GetCompany(_ context.Context, fnr string) (*model.Company, error) {
	return f.companies[fnr], nil
}

func (f *fakeDirectory) CompaniesAtAddress(_ context.Context, _ model.Address, _ string) ([]model.CompanySummary, error) {
	return f.atAddress, nil
}

func (f *fakeDirectory) CompaniesWithPartner(_ context.Context, _ model.Partner, _ string) ([]model.CompanySummary, error) {
	return f.byPartner, nil
}

func nodeIDs(g *Graph, nodeType string) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Type == nodeType {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func TestBuildGraph(t *testing.T) {
	t.Parallel()

	birth := time.Date(1980, 4, 12, 0, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{
		companies: map[string]*model.Company{
			"FN123456a": {
				Firmenbuchnummer: "FN123456a",
				Name:             "Musterfirma GmbH",
				Address: &model.Address{
					Street: "Opernring", HouseNumber: "1", PostalCode: "1010", City: "Wien", Country: "Österreich",
				},
				Partners: []model.Partner{
					{FirstName: "Max", LastName: "Mustermann", BirthDate: &birth},
				},
			},
		},
		atAddress: []model.CompanySummary{{Firmenbuchnummer: "FN234567b", Name: "Briefkasten GmbH"}},
		byPartner: []model.CompanySummary{{Firmenbuchnummer: "FN345678c", Name: "Zweitfirma GmbH"}},
	}

	g, err := BuildGraph(context.Background(), dir, "FN123456a")
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, "FN123456a", g.Firmenbuchnummer)
	assert.ElementsMatch(t, []string{"FN123456a", "FN234567b", "FN345678c"}, nodeIDs(g, NodeCompany))
	require.Len(t, nodeIDs(g, NodeLocation), 1)
	require.Len(t, nodeIDs(g, NodePerson), 1)

	locationID := nodeIDs(g, NodeLocation)[0]
	personID := nodeIDs(g, NodePerson)[0]
	assert.Len(t, locationID, 8)
	assert.Len(t, personID, 8)

	assert.ElementsMatch(t, []Edge{
		{Source: "FN123456a", Target: locationID, Label: "Location"},
		{Source: "FN234567b", Target: locationID, Label: "Location"},
		{Source: personID, Target: "FN123456a", Label: "Person"},
		{Source: personID, Target: "FN345678c", Label: "Person"},
	}, g.Edges)

	for _, n := range g.Nodes {
		if n.Type == NodeLocation {
			assert.Equal(t, "Österreich, 1010, Wien, Opernring 1", n.Label)
		}
		if n.Type == NodePerson {
			assert.Equal(t, "Max Mustermann", n.Label)
		}
	}
}

func TestBuildGraph_UnknownCompany(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{companies: map[string]*model.Company{}}
	g, err := BuildGraph(context.Background(), dir, "FN999999x")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestBuildGraph_NoAddressNoPartners(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{companies: map[string]*model.Company{
		"FN1a": {Firmenbuchnummer: "FN1a", Name: "Solo GmbH"},
	}}

	g, err := BuildGraph(context.Background(), dir, "FN1a")
	require.NoError(t, err)
	require.NotNil(t, g)
	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestBuildGraph_SharedNodeDeduplicated(t *testing.T) {
	t.Parallel()

	// the same connected company shows up via address and partner
	dir := &fakeDirectory{
		companies: map[string]*model.Company{
			"FN1a": {
				Firmenbuchnummer: "FN1a",
				Name:             "Erste GmbH",
				Address:          &model.Address{City: "Wien"},
				Partners:         []model.Partner{{LastName: "Mustermann"}},
			},
		},
		atAddress: []model.CompanySummary{{Firmenbuchnummer: "FN2b", Name: "Zweite GmbH"}},
		byPartner: []model.CompanySummary{{Firmenbuchnummer: "FN2b", Name: "Zweite GmbH"}},
	}

	g, err := BuildGraph(context.Background(), dir, "FN1a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"FN1a", "FN2b"}, nodeIDs(g, NodeCompany))
	// both edges survive even though the node is shared
	assert.Len(t, g.Edges, 4)
}

func TestPersonLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		partner model.Partner
		want    string
	}{
		{"formatted name wins", model.Partner{Name: "Mag. Max Mustermann", FirstName: "Max", LastName: "Mustermann"}, "Mag. Max Mustermann"},
		{"first and last", model.Partner{FirstName: "Max", LastName: "Mustermann"}, "Max Mustermann"},
		{"last only", model.Partner{LastName: "Mustermann"}, "Mustermann"},
		{"nothing", model.Partner{}, "Unknown Person"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, personLabel(tt.partner))
		})
	}
}
