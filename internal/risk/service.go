package risk

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/bilanz"
	"github.com/bizray/registry-cli/internal/model"
	"github.com/bizray/registry-cli/pkg/firmenbuch"
)

// DocumentSource lists and fetches filed documents. Satisfied by
// firmenbuch.Client.
type DocumentSource interface {
	SearchDocuments(ctx context.Context, fnr string) ([]firmenbuch.Document, error)
	FetchDocument(ctx context.Context, key string) ([]byte, error)
}

// ResultStore is the store subset the service needs.
type ResultStore interface {
	GetCompany(ctx context.Context, fnr string) (*model.Company, error)
	SaveRiskResult(ctx context.Context, fnr string, indicators map[string]float64, score *float64) error
}

// Service evaluates a company end to end: load the record, pull its XML
// filings, parse them into statements and run the indicator engine. The
// stored indicator set is refreshed on every successful evaluation.
type Service struct {
	docs   DocumentSource
	store  ResultStore
	engine *Engine
}

// NewService creates a risk evaluation service.
func NewService(docs DocumentSource, store ResultStore, engine *Engine) *Service {
	return &Service{docs: docs, store: store, engine: engine}
}

// Known returns the subset of indicators with a computed value.
func (s Set) Known() map[string]float64 {
	out := make(map[string]float64)
	for key, value := range s {
		if value != nil {
			out[key] = *value
		}
	}
	return out
}

// Evaluate computes the current risk result for a company. Returns
// (nil, nil) when the company is unknown. Document-service failures and
// unparseable filings degrade to a result without risk data rather than
// failing the whole lookup.
func (s *Service) Evaluate(ctx context.Context, fnr string) (*model.CompanyWithRisk, error) {
	company, err := s.store.GetCompany(ctx, fnr)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: load company %s", fnr)
	}
	if company == nil {
		return nil, nil
	}

	result := &model.CompanyWithRisk{Company: *company}

	statements := s.fetchStatements(ctx, fnr)
	if len(statements) == 0 {
		return result, nil
	}

	filings := make([]Filing, len(company.RegistryEntries))
	for i, entry := range company.RegistryEntries {
		filings[i] = entry
	}

	indicators, score, err := s.engine.IndicatorsFor(ctx, fnr, statements, filings)
	if err != nil {
		if errors.Is(err, ErrNoStatements) {
			return result, nil
		}
		return nil, eris.Wrapf(err, "risk: evaluate %s", fnr)
	}

	if err := s.store.SaveRiskResult(ctx, fnr, indicators.Known(), score); err != nil {
		zap.L().Warn("persisting risk result failed",
			zap.String("fnr", fnr),
			zap.Error(err),
		)
	}

	result.Indicators = indicators
	result.Score = score
	return result, nil
}

// fetchStatements pulls and parses every structured XML filing of a
// company. Failures are logged and skipped.
func (s *Service) fetchStatements(ctx context.Context, fnr string) []model.FinancialStatement {
	docs, err := s.docs.SearchDocuments(ctx, fnr)
	if err != nil {
		zap.L().Warn("document search failed",
			zap.String("fnr", fnr),
			zap.Error(err),
		)
		return nil
	}

	var statements []model.FinancialStatement
	for _, doc := range firmenbuch.FilterXML(docs) {
		content, err := s.docs.FetchDocument(ctx, doc.Key)
		if err != nil {
			zap.L().Warn("document fetch failed",
				zap.String("fnr", fnr),
				zap.String("key", doc.Key),
				zap.Error(err),
			)
			continue
		}
		stmt, err := bilanz.Parse(content)
		if err != nil {
			zap.L().Warn("filing not parseable",
				zap.String("fnr", fnr),
				zap.String("key", doc.Key),
				zap.Error(err),
			)
			continue
		}
		statements = append(statements, *stmt)
	}
	return statements
}
