package script

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/domain"
)

// Campaign binds an industry template family to a concrete set of template
// variables.
type Campaign struct {
	ID        string
	Name      string
	Industry  string
	Variables map[string]string
}

// Repository is the campaign script catalog. It is safe for concurrent use.
type Repository struct {
	mu         sync.RWMutex
	industries map[string]*IndustryTemplate
	campaigns  map[string]Campaign
	logger     *slog.Logger
}

// Option configures the Repository.
type Option func(*Repository)

// WithLogger configures a logger for catalog events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a Repository seeded with the built-in industry
// templates and campaigns.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		industries: builtinIndustries(),
		campaigns:  make(map[string]Campaign),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range builtinCampaigns() {
		r.campaigns[c.ID] = c
	}
	return r
}

// RegisterIndustry adds (or replaces) an industry template family. The flow
// graph is validated before it enters the catalog: a broken next_stage is a
// registration error, not a runtime surprise.
func (r *Repository) RegisterIndustry(id string, tmpl *IndustryTemplate) error {
	probe := &domain.Script{
		Name:              tmpl.Name,
		Industry:          id,
		Stages:            tmpl.Flow,
		Legacy:            tmpl.Legacy,
		FallbackResponses: tmpl.FallbackResponses,
	}
	if err := Validate(probe); err != nil {
		return fmt.Errorf("invalid industry template %q: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.industries[id] = tmpl
	return nil
}

// CreateCampaign registers a new campaign derived from an industry template.
// It reports false when the industry family is unknown.
func (r *Repository) CreateCampaign(id, name, industry string, vars map[string]string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.industries[industry]; !ok {
		r.logger.Error("unknown industry for campaign", "campaign_id", id, "industry", industry)
		return false
	}

	r.campaigns[id] = Campaign{ID: id, Name: name, Industry: industry, Variables: vars}
	r.logger.Info("campaign created", "campaign_id", id, "name", name, "industry", industry)
	return true
}

// Get returns a fully rendered script for the campaign. An unknown campaign
// falls back to defaultID; when the default is also unresolvable the
// configuration is broken and domain.ErrScriptNotFound is returned.
//
// The returned script is an independent copy: callers may mutate it freely
// without affecting the catalog or any other call.
func (r *Repository) Get(campaignID, defaultID string) (*domain.Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	campaign, ok := r.campaigns[campaignID]
	if !ok {
		campaign, ok = r.campaigns[defaultID]
		if !ok {
			return nil, fmt.Errorf("campaign %q and default %q: %w", campaignID, defaultID, domain.ErrScriptNotFound)
		}
		r.logger.Warn("unknown campaign, using default", "campaign_id", campaignID, "default_id", defaultID)
	}

	tmpl, ok := r.industries[campaign.Industry]
	if !ok {
		return nil, fmt.Errorf("campaign %q industry %q: %w", campaign.ID, campaign.Industry, domain.ErrUnknownIndustry)
	}

	return r.render(campaign, tmpl), nil
}

// render builds an independent script instance for one call. Legacy flat
// components are rendered eagerly with the campaign variables; graph stage
// messages keep their placeholders so facts extracted mid-call can still be
// substituted, with the campaign variables carried alongside.
func (r *Repository) render(campaign Campaign, tmpl *IndustryTemplate) *domain.Script {
	s := &domain.Script{
		ID:                campaign.ID,
		Name:              campaign.Name,
		Industry:          campaign.Industry,
		Stages:            tmpl.Flow,
		FallbackResponses: tmpl.FallbackResponses,
	}
	s = s.Clone()

	s.Variables = make(map[string]string, len(campaign.Variables))
	for k, v := range campaign.Variables {
		s.Variables[k] = v
	}

	if tmpl.Legacy != nil {
		s.Legacy = &domain.LegacyScript{
			Greeting: Render(tmpl.Legacy.Greeting, campaign.Variables),
			MoreInfo: Render(tmpl.Legacy.MoreInfo, campaign.Variables),
			Closing:  Render(tmpl.Legacy.Closing, campaign.Variables),
			Fallback: Render(tmpl.Legacy.Fallback, campaign.Variables),
		}
	}
	return s
}

// CampaignInfo is a catalog listing entry.
type CampaignInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// Campaigns lists the registered campaigns, ordered by ID.
func (r *Repository) Campaigns() []CampaignInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CampaignInfo, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, CampaignInfo{ID: c.ID, Name: c.Name, Industry: c.Industry})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Industries lists the registered industry template families, ordered by ID.
func (r *Repository) Industries() []CampaignInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CampaignInfo, 0, len(r.industries))
	for id, tmpl := range r.industries {
		out = append(out, CampaignInfo{ID: id, Name: tmpl.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
