package matching

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"winelens/internal/logging"
	"winelens/internal/search"
	"winelens/internal/services"
	"winelens/internal/wine"
)

// Store is the local index the orchestrator reads and writes through.
type Store interface {
	FindExact(text string, vintage *int) (wine.Record, bool)
	FindFuzzy(text string) (wine.Record, float64, bool)
	Upsert(records ...wine.Record)
}

// Orchestrator runs the tiered matching pipeline.
type Orchestrator struct {
	store    Store
	searcher search.Searcher
	policy   Policy
	logger   *slog.Logger
}

// New builds an orchestrator. A nil searcher disables the remote tiers.
func New(store Store, searcher search.Searcher, policy Policy, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		searcher: searcher,
		policy:   policy.normalized(),
		logger:   logging.NewComponentLogger(logger, "matching"),
	}
}

// Policy returns the effective thresholds.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// RemoteEnabled reports whether remote tiers are available.
func (o *Orchestrator) RemoteEnabled() bool {
	return o.searcher != nil
}

// MatchWine resolves one piece of text through every tier up to the single
// remote search. It returns nil when nothing matched.
func (o *Orchestrator) MatchWine(ctx context.Context, text string) *wine.MatchResult {
	parsed := Parse(text)
	if result := o.MatchLocal(ctx, parsed); result != nil {
		return result
	}
	return o.MatchRemote(ctx, parsed)
}

// BatchMatch resolves texts locally and sends whatever is left to the
// service in batches. Every input text is a key of the returned map; the
// value is nil when nothing matched.
func (o *Orchestrator) BatchMatch(ctx context.Context, texts []string) map[string]*wine.MatchResult {
	out := make(map[string]*wine.MatchResult, len(texts))
	var pending []Parsed
	for _, text := range texts {
		if _, seen := out[text]; seen {
			continue
		}
		parsed := Parse(text)
		result := o.MatchLocal(ctx, parsed)
		out[text] = result
		if result == nil {
			pending = append(pending, parsed)
		}
	}
	for text, result := range o.MatchRemoteBatch(ctx, pending) {
		out[text] = result
	}
	return out
}

// MatchLocal runs the exact and fuzzy local tiers. It stops early, returning
// nil, once ctx is done.
func (o *Orchestrator) MatchLocal(ctx context.Context, parsed Parsed) *wine.MatchResult {
	if parsed.Query == "" || ctx.Err() != nil {
		return nil
	}
	if rec, ok := o.store.FindExact(parsed.Query, parsed.Vintage); ok && parsed.AcceptsVintage(rec) {
		result := o.result(rec, o.policy.ExactConfidence, parsed.Vintage, wine.TierExact)
		o.logMatch(ctx, parsed, result)
		return result
	}
	if ctx.Err() != nil {
		return nil
	}
	rec, score, ok := o.store.FindFuzzy(parsed.Query)
	if !ok || score < o.policy.AcceptanceThreshold {
		return nil
	}
	rec = o.preferVintage(rec, parsed.Vintage)
	if !parsed.AcceptsVintage(rec) {
		logging.WithContext(ctx, o.logger).Debug("fuzzy match rejected on vintage",
			logging.Candidate(parsed.Original),
			logging.String(logging.FieldWineID, rec.ID))
		return nil
	}
	result := o.result(rec, min(score, o.policy.ExactConfidence), parsed.Vintage, wine.TierFuzzyLocal)
	o.logMatch(ctx, parsed, result)
	return result
}

// MatchRemote runs the single remote search tier.
func (o *Orchestrator) MatchRemote(ctx context.Context, parsed Parsed) *wine.MatchResult {
	if o.searcher == nil || parsed.Query == "" || ctx.Err() != nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, o.policy.RemoteTimeout)
	defer cancel()

	filters := search.Filters{Limit: 5}
	if parsed.Vintage != nil {
		filters.Vintage = *parsed.Vintage
	}
	hits, err := o.searcher.Search(callCtx, parsed.Query, filters)
	if err != nil {
		o.remoteFailed(ctx, err, "search", 1)
		return nil
	}
	top, ok := search.Top(hits)
	if !ok || top.Confidence < o.policy.AcceptanceThreshold {
		return nil
	}
	o.store.Upsert(top.Record)
	result := o.result(top.Record, top.Confidence, parsed.Vintage, wine.TierFuzzyRemote)
	o.logMatch(ctx, parsed, result)
	return result
}

// MatchRemoteBatch runs the batched remote tier for parsed candidates,
// BatchSize queries per call, accepting hits at the discounted threshold.
// The returned map is keyed by each candidate's original text; unmatched
// candidates map to nil.
func (o *Orchestrator) MatchRemoteBatch(ctx context.Context, pending []Parsed) map[string]*wine.MatchResult {
	out := make(map[string]*wine.MatchResult, len(pending))
	for _, p := range pending {
		out[p.Original] = nil
	}
	if o.searcher == nil || len(pending) == 0 {
		return out
	}
	threshold := o.policy.BatchThreshold()
	for start := 0; start < len(pending); start += o.policy.BatchSize {
		if ctx.Err() != nil {
			break
		}
		group := pending[start:min(start+o.policy.BatchSize, len(pending))]
		byQuery := make(map[string][]Parsed, len(group))
		queries := make([]string, 0, len(group))
		for _, p := range group {
			q := remoteQuery(p)
			if q == "" {
				continue
			}
			if _, ok := byQuery[q]; !ok {
				queries = append(queries, q)
			}
			byQuery[q] = append(byQuery[q], p)
		}
		if len(queries) == 0 {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.policy.RemoteTimeout)
		hits, err := o.searcher.BatchSearch(callCtx, queries)
		cancel()
		if err != nil {
			o.remoteFailed(ctx, err, "batch_search", len(queries))
			continue
		}

		var accepted []wine.Record
		for q, hit := range hits {
			owners, ok := byQuery[q]
			if !ok || hit.Confidence < threshold {
				continue
			}
			accepted = append(accepted, hit.Record)
			for _, p := range owners {
				result := o.result(hit.Record, hit.Confidence, p.Vintage, wine.TierFuzzyRemote)
				out[p.Original] = result
				o.logMatch(ctx, p, result)
			}
		}
		o.store.Upsert(accepted...)
	}
	return out
}

func remoteQuery(p Parsed) string {
	if p.Query == "" {
		return ""
	}
	if p.Vintage != nil {
		return p.Query + " " + strconv.Itoa(*p.Vintage)
	}
	return p.Query
}

// preferVintage swaps a fuzzy hit for the same wine's record in the parsed
// vintage when the index holds one.
func (o *Orchestrator) preferVintage(rec wine.Record, vintage *int) wine.Record {
	if vintage == nil || rec.SameVintage(vintage) {
		return rec
	}
	if alt, ok := o.store.FindExact(rec.FullName(), vintage); ok {
		return alt
	}
	return rec
}

func (o *Orchestrator) result(rec wine.Record, confidence float64, vintage *int, tier wine.Tier) *wine.MatchResult {
	matched := rec.Vintage
	if matched == nil {
		matched = vintage
	}
	return &wine.MatchResult{
		Record:         &rec,
		Confidence:     min(1, max(0, confidence)),
		MatchedVintage: matched,
		Tier:           tier,
	}
}

// remoteFailed logs a remote tier failure unless a newer frame superseded
// the call.
func (o *Orchestrator) remoteFailed(ctx context.Context, err error, operation string, queries int) {
	if services.IsSuperseded(ctx, err) {
		return
	}
	logger := logging.WithContext(ctx, o.logger)
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logger.Debug("remote search cancelled", logging.String("operation", operation))
		return
	}
	logging.WarnWithContext(logger, "remote search failed", "remote_search_failed",
		logging.String("operation", operation),
		logging.Int("query_count", queries),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, remoteHint(err)),
		logging.String(logging.FieldImpact, "candidates fall back to local matches only"))
}

func remoteHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check search.api_key and search.base_url"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "search service slow; consider raising search.timeout_seconds"
	default:
		return "search service unreachable; matching continues locally"
	}
}

func (o *Orchestrator) logMatch(ctx context.Context, parsed Parsed, result *wine.MatchResult) {
	if result == nil || result.Record == nil {
		return
	}
	attrs := append([]logging.Attr{logging.Candidate(parsed.Original)},
		logging.Match(result.Record.ID, string(result.Tier), result.Confidence)...)
	logging.WithContext(ctx, o.logger).Debug("candidate matched", logging.Args(attrs...)...)
}
