package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Mask replaces masked values in listings.
const Mask = "***"

type maskMiddleware struct {
	ports.Repository
	patterns []*regexp.Regexp
}

// NewMaskMiddleware creates a middleware that hides the values of columns
// matching the patterns in List results. Get is left untouched so update
// forms still see the stored value.
func NewMaskMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Repository) ports.Repository {
		return &maskMiddleware{Repository: next, patterns: patterns}
	}
}

func (m *maskMiddleware) List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error) {
	recs, total, err := m.Repository.List(ctx, t, q)
	if err != nil {
		return nil, 0, err
	}
	for i, rec := range recs {
		recs[i] = m.mask(t, rec)
	}
	return recs, total, nil
}

func (m *maskMiddleware) mask(t domain.Table, rec domain.Record) domain.Record {
	out := rec.Clone()
	for k, v := range rec {
		if v == "" || k == t.IDField {
			continue
		}
		for _, p := range m.patterns {
			if p.MatchString(k) {
				out[k] = Mask
				break
			}
		}
	}
	return out
}
