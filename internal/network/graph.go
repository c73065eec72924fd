// Package network builds the connection graph around a company: its
// registered location and partners, plus other companies sharing either.
package network

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bizray/registry-cli/internal/model"
)

// Node types used in graph responses.
const (
	NodeCompany  = "company"
	NodeLocation = "location"
	NodePerson   = "person"
)

// Directory is the store subset the graph builder needs.
type Directory interface {
	GetCompany(ctx context.Context, fnr string) (*model.Company, error)
	CompaniesAtAddress(ctx context.Context, addr model.Address, excludeFNR string) ([]model.CompanySummary, error)
	CompaniesWithPartner(ctx context.Context, p model.Partner, excludeFNR string) ([]model.CompanySummary, error)
}

// Node is a graph vertex. Company nodes use the Firmenbuchnummer as their
// id; location and person nodes use a short hash of their label so the same
// address or person folds into one vertex.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Edge connects two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the connection graph around one company.
type Graph struct {
	Firmenbuchnummer string `json:"firmenbuchnummer"`
	Nodes            []Node `json:"nodes"`
	Edges            []Edge `json:"edges"`
}

// builder accumulates nodes with de-duplication.
type builder struct {
	graph Graph
	seen  map[string]bool
}

func (b *builder) addNode(n Node) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true
	b.graph.Nodes = append(b.graph.Nodes, n)
}

func (b *builder) addEdge(source, target, label string) {
	b.graph.Edges = append(b.graph.Edges, Edge{Source: source, Target: target, Label: label})
}

func labelID(label string) string {
	sum := sha256.Sum256([]byte(label))
	return hex.EncodeToString(sum[:])[:8]
}

func locationLabel(addr model.Address) string {
	var parts []string
	if addr.Country != "" {
		parts = append(parts, addr.Country)
	}
	if addr.PostalCode != "" {
		parts = append(parts, addr.PostalCode)
	}
	if addr.City != "" {
		parts = append(parts, addr.City)
	}
	if addr.Street != "" {
		street := addr.Street
		if addr.HouseNumber != "" {
			street += " " + addr.HouseNumber
		}
		parts = append(parts, street)
	}
	if len(parts) == 0 {
		return "Unknown Location"
	}
	return strings.Join(parts, ", ")
}

func personLabel(p model.Partner) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.LastName != "":
		return p.LastName
	default:
		return "Unknown Person"
	}
}

// BuildGraph assembles the one-hop connection graph for a company. Returns
// (nil, nil) when the company is unknown.
func BuildGraph(ctx context.Context, dir Directory, fnr string) (*Graph, error) {
	company, err := dir.GetCompany(ctx, fnr)
	if err != nil {
		return nil, eris.Wrapf(err, "network: load company %s", fnr)
	}
	if company == nil {
		return nil, nil
	}

	b := &builder{
		graph: Graph{Firmenbuchnummer: fnr},
		seen:  make(map[string]bool),
	}
	b.addNode(Node{ID: company.Firmenbuchnummer, Type: NodeCompany, Label: company.Name})

	if company.Address != nil && !company.Address.Empty() {
		locationID := labelID(locationLabel(*company.Address))
		b.addNode(Node{ID: locationID, Type: NodeLocation, Label: locationLabel(*company.Address)})
		b.addEdge(company.Firmenbuchnummer, locationID, "Location")

		neighbors, err := dir.CompaniesAtAddress(ctx, *company.Address, fnr)
		if err != nil {
			return nil, eris.Wrapf(err, "network: companies at address of %s", fnr)
		}
		for _, n := range neighbors {
			b.addNode(Node{ID: n.Firmenbuchnummer, Type: NodeCompany, Label: n.Name})
			b.addEdge(n.Firmenbuchnummer, locationID, "Location")
		}
	}

	for _, partner := range company.Partners {
		personID := labelID(personLabel(partner))
		b.addNode(Node{ID: personID, Type: NodePerson, Label: personLabel(partner)})
		b.addEdge(personID, company.Firmenbuchnummer, "Person")

		if partner.FirstName == "" && partner.LastName == "" {
			continue
		}
		connected, err := dir.CompaniesWithPartner(ctx, partner, fnr)
		if err != nil {
			return nil, eris.Wrapf(err, "network: companies with partner of %s", fnr)
		}
		for _, c := range connected {
			b.addNode(Node{ID: c.Firmenbuchnummer, Type: NodeCompany, Label: c.Name})
			b.addEdge(personID, c.Firmenbuchnummer, "Person")
		}
	}

	return &b.graph, nil
}
