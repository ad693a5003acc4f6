package prompt

import (
	"context"
	"log/slog"
	"strings"
)

// Domain is one entry in the domain repository. Status "trained" means its
// custom prompts were produced by a tuning run and take priority.
type Domain struct {
	Name           string
	EntityPrompt   string
	RelationPrompt string
	Status         string
}

// Trained reports whether the domain carries usable custom prompts.
func (d *Domain) Trained() bool {
	return d != nil && d.Status == "trained" && d.EntityPrompt != "" && d.RelationPrompt != ""
}

// DomainRepository looks up per-domain prompt overrides. Implementations may
// be backed by anything; a nil repository (or any lookup error) silently
// falls through to the universal pairs.
type DomainRepository interface {
	GetDomain(ctx context.Context, name string) (*Domain, error)
}

// Resolver picks the active prompt pair for a domain.
type Resolver struct {
	domains DomainRepository
	useDSPy bool
	logger  *slog.Logger
}

// NewResolver builds a resolver. domains may be nil.
func NewResolver(domains DomainRepository, useDSPy bool) *Resolver {
	return &Resolver{
		domains: domains,
		useDSPy: useDSPy,
		logger:  slog.With("component", "prompt_resolver"),
	}
}

// Resolve returns the prompt pair for a domain. Priority: trained domain
// prompts, then the DSPy universal pair when enabled, then the legacy pair.
// Lookup failures never propagate; they fall through to the next tier.
func (r *Resolver) Resolve(ctx context.Context, domain string) Pair {
	if r.domains != nil && domain != "" {
		d, err := r.domains.GetDomain(ctx, domain)
		if err != nil {
			r.logger.Debug("Domain lookup failed, falling back", "domain", domain, "error", err)
		} else if d.Trained() {
			return Pair{Entity: d.EntityPrompt, Relation: d.RelationPrompt, Origin: OriginDomain}
		}
	}
	if r.useDSPy {
		return dspyPair
	}
	return legacyPair
}

// Render substitutes the known placeholders into a template. Placeholders
// absent from the template are ignored; unknown braces pass through.
func Render(template, text, entities, domain string) string {
	s := strings.ReplaceAll(template, "{text}", text)
	s = strings.ReplaceAll(s, "{entities}", entities)
	s = strings.ReplaceAll(s, "{domain}", domain)
	return s
}
