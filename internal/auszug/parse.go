// Package auszug parses Firmenbuch extract responses (AuszugResponse XML)
// into company records. An extract carries the firm's master data blocks
// (FI_DKZ*), the persons attached to it (PER) with their functions (FUN),
// and the court's execution log (VOLLZ).
package auszug

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bizray/registry-cli/internal/model"
)

// Namespace is the Firmenbuch query-service response namespace.
const Namespace = "ns://firmenbuch.justiz.gv.at/Abfrage/v2/AuszugResponse"

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func inNamespace(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == Namespace || name.Space == "")
}

func (n *node) attr(local string) string {
	for _, a := range n.Attrs {
		if inNamespace(a.Name, local) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// path descends through direct children by local name and returns the
// trimmed text of the final element, or "".
func (n *node) path(locals ...string) string {
	cur := n
	for _, local := range locals {
		next := (*node)(nil)
		for i := range cur.Children {
			if inNamespace(cur.Children[i].XMLName, local) {
				next = &cur.Children[i]
				break
			}
		}
		if next == nil {
			return ""
		}
		cur = next
	}
	return strings.TrimSpace(cur.Text)
}

func (n *node) findDeep(local string) *node {
	if inNamespace(n.XMLName, local) {
		return n
	}
	for i := range n.Children {
		if m := n.Children[i].findDeep(local); m != nil {
			return m
		}
	}
	return nil
}

func (n *node) findAllDeep(local string, out []*node) []*node {
	if inNamespace(n.XMLName, local) {
		out = append(out, n)
	}
	for i := range n.Children {
		out = n.Children[i].findAllDeep(local, out)
	}
	return out
}

// pathDeep is findDeep followed by path, mirroring the ".//" lookups the
// extract format needs for blocks that nest at varying depths.
func (n *node) pathDeep(locals ...string) string {
	m := n.findDeep(locals[0])
	if m == nil {
		return ""
	}
	if len(locals) == 1 {
		return strings.TrimSpace(m.Text)
	}
	return m.path(locals[1:]...)
}

// compactDate parses the yyyymmdd dates used throughout extracts.
func compactDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}

// Parse extracts a company record from an AuszugResponse document.
func Parse(data []byte) (*model.Company, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, eris.Wrap(err, "auszug: decode xml")
	}

	fnr := strings.ReplaceAll(root.attr("FNR"), " ", "")
	if fnr == "" {
		return nil, eris.New("auszug: missing FNR attribute")
	}

	c := model.Company{
		Firmenbuchnummer: fnr,
		Name:             root.pathDeep("FI_DKZ02", "BEZEICHNUNG"),
		LegalForm:        root.pathDeep("FI_DKZ07", "RECHTSFORM", "TEXT"),
		BusinessPurpose:  root.pathDeep("FI_DKZ05", "TEXT"),
		Seat:             root.pathDeep("FI_DKZ06", "SITZ"),
		EUID:             root.pathDeep("EUID", "EUID"),
		ReferenceDate:    compactDate(root.attr("STICHTAG")),
	}

	addr := model.Address{
		Street:      root.pathDeep("FI_DKZ03", "STRASSE"),
		HouseNumber: root.pathDeep("FI_DKZ03", "HAUSNUMMER"),
		PostalCode:  root.pathDeep("FI_DKZ03", "PLZ"),
		City:        root.pathDeep("FI_DKZ03", "ORT"),
		Country:     root.pathDeep("FI_DKZ03", "STAAT"),
	}
	if !addr.Empty() {
		c.Address = &addr
	}

	// Functions are linked to persons through the PNR attribute.
	functions := make(map[string]*node)
	for _, fun := range root.findAllDeep("FUN", nil) {
		if pnr := fun.attr("PNR"); pnr != "" {
			if _, seen := functions[pnr]; !seen {
				functions[pnr] = fun
			}
		}
	}

	for _, per := range root.findAllDeep("PER", nil) {
		p := model.Partner{
			Name:      per.pathDeep("PE_DKZ02", "NAME_FORMATIERT"),
			FirstName: per.pathDeep("PE_DKZ02", "VORNAME"),
			LastName:  per.pathDeep("PE_DKZ02", "NACHNAME"),
			BirthDate: compactDate(per.pathDeep("PE_DKZ02", "GEBURTSDATUM")),
		}
		if fun := functions[per.attr("PNR")]; fun != nil {
			p.Role = fun.attr("FKENTEXT")
			p.Representation = fun.pathDeep("FU_DKZ10", "VART", "TEXT")
		}
		c.Partners = append(c.Partners, p)
	}

	for _, vollz := range root.findAllDeep("VOLLZ", nil) {
		entry := model.RegistryEntry{
			Court:           vollz.path("HG", "TEXT"),
			FileNumber:      vollz.path("AZ"),
			ApplicationDate: compactDate(vollz.path("EINGELANGTAM")),
			RegisteredAt:    compactDate(vollz.path("VOLLZUGSDATUM")),
			Type:            "Neueintragung",
		}
		if strings.Contains(vollz.path("ANTRAGSTEXT"), "Änderung") {
			entry.Type = "Änderung"
		}
		c.RegistryEntries = append(c.RegistryEntries, entry)
	}

	return &c, nil
}
