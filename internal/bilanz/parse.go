// Package bilanz parses electronic balance-sheet filings (E-Bilanz XML,
// FinanzOnline schema) into financial statements. The documents follow the
// Austrian UGB/HGB layout: every position element carries its amount in a
// POSTENZEILE/BETRAG child and nests its sub-positions below it.
package bilanz

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bizray/registry-cli/internal/model"
)

// Namespace is the FinanzOnline bilanz schema namespace.
const Namespace = "https://finanzonline.bmf.gv.at/bilanz"

// node is a generic element-tree representation. The schema has dozens of
// position tags that only differ by name, so a typed struct per tag would
// bury the extraction logic; a tree plus path lookups keeps it in one place.
type node struct {
	XMLName  xml.Name
	Text     string `xml:",chardata"`
	Children []node `xml:",any"`
}

// find returns the first direct child with the given local name in the
// bilanz namespace, or nil.
func (n *node) find(name string) *node {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name && (c.XMLName.Space == Namespace || c.XMLName.Space == "") {
			return c
		}
	}
	return nil
}

// findDeep returns the first matching element in document order anywhere in
// the subtree, the element itself included.
func (n *node) findDeep(name string) *node {
	if n.XMLName.Local == name && (n.XMLName.Space == Namespace || n.XMLName.Space == "") {
		return n
	}
	for i := range n.Children {
		if m := n.Children[i].findDeep(name); m != nil {
			return m
		}
	}
	return nil
}

// betrag extracts the amount of a position element: the BETRAG value of the
// first POSTENZEILE in the subtree. Returns nil when the position carries no
// parseable amount.
func betrag(n *node) *float64 {
	if n == nil {
		return nil
	}
	zeile := n.findDeep("POSTENZEILE")
	if zeile == nil {
		return nil
	}
	b := zeile.find("BETRAG")
	if b == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(b.Text), 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDate accepts the two date spellings seen in filings: ISO 8601 and
// compact yyyymmdd.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// noteFields maps the HGB_Form_3 note tags worth surfacing to readable keys.
var noteFields = map[string]string{
	"HGB_Form_3_6":  "accounting_and_valuation_principles",
	"HGB_Form_3_10": "foreign_currency_translation",
	"HGB_Form_3_11": "contingent_liabilities_guarantees",
	"HGB_Form_3_16": "average_number_of_employees",
	"HGB_Form_3_26": "information_on_deferred_taxes",
}

// Parse extracts a financial statement from a bilanz XML document.
func Parse(data []byte) (*model.FinancialStatement, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, eris.Wrap(err, "bilanz: decode xml")
	}

	form := root.findDeep("BILANZ")
	if form == nil {
		form = root.findDeep("HGB_Form_2")
	}
	if form == nil {
		return nil, eris.New("bilanz: no BILANZ or HGB_Form_2 element")
	}

	var stmt model.FinancialStatement

	if allg := root.findDeep("ALLG_JUSTIZ"); allg != nil {
		if w := allg.find("WAEHRUNG"); w != nil {
			stmt.Currency = strings.TrimSpace(w.Text)
		}
		if gj := allg.find("GJ"); gj != nil {
			if b := gj.find("BEGINN"); b != nil {
				stmt.FiscalYear.StartDate = parseDate(b.Text)
			}
			if e := gj.find("ENDE"); e != nil {
				stmt.FiscalYear.EndDate = parseDate(e.Text)
			}
		}
	}

	// Aktiva, § 224 Abs 2 UGB.
	if aktiva := form.find("HGB_224_2"); aktiva != nil {
		a := &stmt.Assets
		a.TotalAssets = betrag(aktiva)
		if av := aktiva.find("HGB_224_2_A"); av != nil {
			a.FixedAssets = betrag(av)
			a.IntangibleAssets = betrag(av.find("HGB_224_2_A_I"))
			a.TangibleAssets = betrag(av.find("HGB_224_2_A_II"))
			a.FinancialAssets = betrag(av.find("HGB_224_2_A_III"))
		}
		if uv := aktiva.find("HGB_224_2_B"); uv != nil {
			a.CurrentAssets = betrag(uv)
			a.Inventories = betrag(uv.find("HGB_224_2_B_I"))
			a.ReceivablesAndOtherAssets = betrag(uv.find("HGB_224_2_B_II"))
			a.Securities = betrag(uv.find("HGB_224_2_B_III"))
			a.CashAndCashEquivalents = betrag(uv.find("HGB_224_2_B_IV"))
		}
		a.PrepaidExpenses = betrag(aktiva.find("HGB_224_2_C"))
		a.ActiveDeferredTaxes = betrag(aktiva.find("HGB_224_2_D"))
	}

	// Passiva, § 224 Abs 3 UGB.
	if passiva := form.find("HGB_224_3"); passiva != nil {
		l := &stmt.LiabilitiesEquity
		l.TotalLiabilitiesAndEquity = betrag(passiva)
		if ek := passiva.find("HGB_224_3_A"); ek != nil {
			l.Equity = betrag(ek)
			l.SubscribedCapital = betrag(ek.find("HGB_229_1_A_I"))
			l.CapitalReserves = betrag(ek.find("HGB_224_3_A_II"))
			l.RevenueReserves = betrag(ek.find("HGB_224_3_A_III"))
			l.NetProfitLoss = betrag(ek.find("HGB_224_3_A_IV"))
		}
		l.Liabilities = betrag(passiva.find("HGB_224_3_C"))
		l.DeferredIncome = betrag(passiva.find("HGB_224_3_D"))
		l.PassiveDeferredTaxes = betrag(passiva.find("HGB_224_3_E"))
	}

	for tag, key := range noteFields {
		if n := root.findDeep(tag); n != nil {
			if text := strings.TrimSpace(n.Text); text != "" {
				if stmt.Notes == nil {
					stmt.Notes = make(map[string]string)
				}
				stmt.Notes[key] = text
			}
		}
	}

	return &stmt, nil
}
