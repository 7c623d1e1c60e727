package matchindex

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/gofrs/flock"

	"winelens/internal/logging"
	"winelens/internal/textnorm"
	"winelens/internal/wine"
)

const (
	// SchemaVersion tags persisted snapshots. Bump it whenever the record
	// layout or key derivation changes; older snapshots are then discarded.
	SchemaVersion = 2

	defaultFuzzyFloor = 0.5
	minTokenLength    = 3
	// neighbourSimilarity admits indexed tokens that are near misses of a
	// query token, such as OCR transpositions.
	neighbourSimilarity = 0.7
)

// Option customizes an Index.
type Option func(*Index)

// WithSchemaVersion overrides the snapshot schema version.
func WithSchemaVersion(version int) Option {
	return func(ix *Index) {
		if version > 0 {
			ix.schemaVersion = version
		}
	}
}

// WithFuzzyFloor sets the minimum similarity FindFuzzy will return.
func WithFuzzyFloor(floor float64) Option {
	return func(ix *Index) {
		if floor > 0 && floor <= 1 {
			ix.fuzzyFloor = floor
		}
	}
}

// Index is the local match index.
type Index struct {
	path          string
	logger        *slog.Logger
	schemaVersion int
	fuzzyFloor    float64
	// fileMu serializes snapshot IO within the process; the flock handle is
	// shared and only excludes other processes.
	fileMu   sync.Mutex
	fileLock *flock.Flock
	// beforeWrite runs between copying the records and writing them.
	beforeWrite func()

	mu         sync.RWMutex
	records    map[string]wine.Record
	exact      map[string]map[string]struct{}
	tokens     map[string]map[string]struct{}
	generation uint64
	savedGen   uint64
	clearedGen uint64
}

// New builds an index backed by the snapshot at path and loads it. An empty
// path keeps the index in memory only.
func New(path string, logger *slog.Logger, opts ...Option) *Index {
	logger = logging.NewComponentLogger(logger, "matchindex")
	ix := &Index{
		path:          strings.TrimSpace(path),
		logger:        logger,
		schemaVersion: SchemaVersion,
		fuzzyFloor:    defaultFuzzyFloor,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ix)
		}
	}
	ix.reset()
	if ix.path == "" {
		return ix
	}
	ix.fileLock = flock.New(ix.path + ".lock")
	if err := ix.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load match index snapshot", "match_index_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "index will start empty"),
			logging.String(logging.FieldImpact, "wines will be matched remotely until re-cached"))
	}
	return ix
}

func (ix *Index) reset() {
	ix.records = make(map[string]wine.Record)
	ix.exact = make(map[string]map[string]struct{})
	ix.tokens = make(map[string]map[string]struct{})
}

// Upsert inserts or overwrites records by id and rebuilds their secondary
// entries. Records without an id are ignored.
func (ix *Index) Upsert(records ...wine.Record) {
	if len(records) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	changed := ix.upsertLocked(records)
	if changed > 0 {
		ix.generation++
		ix.logger.Debug("upserted wine records", logging.Int("count", changed), logging.Int("total", len(ix.records)))
	}
}

func (ix *Index) upsertLocked(records []wine.Record) int {
	changed := 0
	for _, rec := range records {
		rec.ID = strings.TrimSpace(rec.ID)
		if rec.ID == "" {
			continue
		}
		if old, ok := ix.records[rec.ID]; ok {
			ix.unlink(old)
		}
		ix.records[rec.ID] = rec
		ix.link(rec)
		changed++
	}
	return changed
}

func (ix *Index) link(rec wine.Record) {
	for _, key := range exactKeys(rec) {
		addTo(ix.exact, key, rec.ID)
	}
	for _, token := range indexTokens(rec) {
		addTo(ix.tokens, token, rec.ID)
	}
}

func (ix *Index) unlink(rec wine.Record) {
	for _, key := range exactKeys(rec) {
		removeFrom(ix.exact, key, rec.ID)
	}
	for _, token := range indexTokens(rec) {
		removeFrom(ix.tokens, token, rec.ID)
	}
}

// FindExact looks up text as a normalized "producer name". With a vintage
// the record's vintage must be equal; without one, a non-vintage record is
// preferred, then the most recent vintage.
func (ix *Index) FindExact(text string, vintage *int) (wine.Record, bool) {
	key := textnorm.Normalize(text)
	if key == "" {
		return wine.Record{}, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var (
		best  wine.Record
		found bool
	)
	for _, id := range sortedIDs(ix.exact[key]) {
		rec := ix.records[id]
		if vintage != nil {
			if rec.SameVintage(vintage) {
				return rec, true
			}
			continue
		}
		if !found || preferWithoutVintage(rec, best) {
			best, found = rec, true
		}
	}
	return best, found
}

func preferWithoutVintage(candidate, current wine.Record) bool {
	if current.Vintage == nil {
		return false
	}
	if candidate.Vintage == nil {
		return true
	}
	return *candidate.Vintage > *current.Vintage
}

// FindFuzzy returns the record most similar to text, provided the score
// reaches the fuzzy floor. Each record is scored against its "producer name"
// and against the same name followed by its region, so list entries that
// carry the appellation on a second line still resolve.
func (ix *Index) FindFuzzy(text string) (wine.Record, float64, bool) {
	query := textnorm.Normalize(text)
	if query == "" {
		return wine.Record{}, 0, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := ix.candidateIDs(strings.Fields(query))
	var (
		best      wine.Record
		bestScore float64
		found     bool
	)
	for _, id := range sortedIDs(candidates) {
		rec := ix.records[id]
		score := 0.0
		for _, key := range fuzzyKeys(rec) {
			score = max(score, textnorm.NormalizedSimilarity(query, key))
		}
		if score > bestScore {
			best, bestScore, found = rec, score, true
		}
	}
	if !found || bestScore < ix.fuzzyFloor {
		return wine.Record{}, bestScore, false
	}
	return best, bestScore, true
}

func (ix *Index) candidateIDs(queryTokens []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, qt := range queryTokens {
		if utf8.RuneCountInString(qt) < minTokenLength {
			continue
		}
		if ids, ok := ix.tokens[qt]; ok {
			for id := range ids {
				out[id] = struct{}{}
			}
		}
		for token, ids := range ix.tokens {
			if token == qt || !tokensOverlap(qt, token) {
				continue
			}
			for id := range ids {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

func tokensOverlap(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	sim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	return sim >= neighbourSimilarity
}

// Get returns the record with the given id.
func (ix *Index) Get(id string) (wine.Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.records[strings.TrimSpace(id)]
	return rec, ok
}

// Len reports the number of cached records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// List returns all records ordered by producer, name, then vintage.
func (ix *Index) List() []wine.Record {
	ix.mu.RLock()
	out := make([]wine.Record, 0, len(ix.records))
	for _, rec := range ix.records {
		out = append(out, rec)
	}
	ix.mu.RUnlock()
	sortRecords(out)
	return out
}

// Clear empties the index and deletes the persisted snapshot.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	ix.reset()
	ix.generation++
	ix.savedGen = ix.generation
	ix.clearedGen = ix.generation
	ix.mu.Unlock()

	if err := ix.removeSnapshot(); err != nil {
		return err
	}
	ix.logger.Info("cleared match index")
	return nil
}

func exactKeys(rec wine.Record) []string {
	keys := make([]string, 0, 2)
	for _, s := range []string{rec.FullName(), rec.Producer + " " + rec.Name} {
		key := textnorm.Normalize(s)
		if key != "" && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func fuzzyKeys(rec wine.Record) []string {
	keys := exactKeys(rec)
	if strings.TrimSpace(rec.Region) == "" {
		return keys
	}
	key := textnorm.Normalize(rec.FullName() + " " + rec.Region)
	if key != "" && !slices.Contains(keys, key) {
		keys = append(keys, key)
	}
	return keys
}

func indexTokens(rec wine.Record) []string {
	var out []string
	for _, token := range textnorm.Tokens(rec.Producer + " " + rec.Name + " " + rec.Region) {
		if utf8.RuneCountInString(token) >= minTokenLength && !slices.Contains(out, token) {
			out = append(out, token)
		}
	}
	return out
}

func addTo(m map[string]map[string]struct{}, key, id string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom(m map[string]map[string]struct{}, key, id string) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m, key)
	}
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func sortRecords(records []wine.Record) {
	slices.SortFunc(records, func(a, b wine.Record) int {
		if c := strings.Compare(strings.ToLower(a.Producer), strings.ToLower(b.Producer)); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return vintageOf(a) - vintageOf(b)
	})
}

func vintageOf(rec wine.Record) int {
	if rec.Vintage == nil {
		return 0
	}
	return *rec.Vintage
}
