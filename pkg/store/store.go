package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the process-wide Knowledge Store singleton. It is created once
// at startup and passed explicitly to every component that needs it —
// never reached via a package-level global (spec §9).
type Store struct {
	mu   sync.Mutex
	path string
	mem  *Memory

	similarityPrefixLen int
	similarityJaccard   float64

	log *slog.Logger
}

// Option configures similarity tunables; both default to the spec's values
// (40, 0.6) when zero.
type Option func(*Store)

// WithSimilarity overrides the pattern-merge thresholds (spec §9 open question).
func WithSimilarity(prefixLen int, jaccard float64) Option {
	return func(s *Store) {
		if prefixLen > 0 {
			s.similarityPrefixLen = prefixLen
		}
		if jaccard > 0 {
			s.similarityJaccard = jaccard
		}
	}
}

// New opens (or initializes) the Knowledge Store at path.
func New(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:                path,
		similarityPrefixLen: 40,
		similarityJaccard:   0.6,
		log:                 slog.With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mem, err := loadFromDisk(path)
	if err != nil {
		return nil, err
	}
	s.mem = mem
	return s, nil
}

func (s *Store) ensureService(name string) *ServiceMemory {
	svc, ok := s.mem.Services[name]
	if !ok {
		svc = newServiceMemory()
		s.mem.Services[name] = svc
	}
	return svc
}

func (s *Store) save() error {
	if err := atomicWrite(s.path, s.mem); err != nil {
		s.log.Error("failed to persist knowledge store", "error", err)
		return err
	}
	return nil
}

// LoadMemory returns a deep-enough snapshot of the whole document. Callers
// must not mutate the returned maps/slices.
func (s *Store) LoadMemory() *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.mem)
	if err != nil {
		return s.mem
	}
	var snap Memory
	if err := json.Unmarshal(data, &snap); err != nil {
		return s.mem
	}
	return &snap
}

// AddInsight appends an insight to service's list, assigning an id and
// default status/timestamp if absent.
func (s *Store) AddInsight(service string, in Insight) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc := s.ensureService(service)
	if in.ID == "" {
		in.ID = "ins-" + shortID()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	if in.Status == "" {
		in.Status = "open"
	}
	svc.Insights = append(svc.Insights, in)

	if err := s.save(); err != nil {
		return "", err
	}
	return in.ID, nil
}

// GetAllInsights flattens insights across all services, optionally filtered
// by status, sorted by timestamp descending.
func (s *Store) GetAllInsights(status string) []InsightView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []InsightView
	for svcName, svc := range s.mem.Services {
		for _, in := range svc.Insights {
			if status != "" && in.Status != status {
				continue
			}
			results = append(results, InsightView{Insight: in, Service: svcName})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results
}

// UpdateInsightStatus scans every service for a matching insight id and
// updates its status. Returns false if no insight matched.
func (s *Store) UpdateInsightStatus(id, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, svc := range s.mem.Services {
		for i := range svc.Insights {
			if svc.Insights[i].ID == id {
				svc.Insights[i].Status = status
				if err := s.save(); err != nil {
					return false, err
				}
				return true, nil
			}
		}
	}
	return false, nil
}

// AddPattern inserts or merges a pattern per the §3 merge invariant: same
// type AND similar description merges into the existing entry.
func (s *Store) AddPattern(service string, p Pattern) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc := s.ensureService(service)
	now := time.Now().UTC()

	for i := range svc.Patterns {
		existing := &svc.Patterns[i]
		if existing.Type == p.Type && similar(existing.Description, p.Description, s.similarityPrefixLen, s.similarityJaccard) {
			existing.LastConfirmed = now
			existing.Occurrences++
			existing.Confidence = min(0.99, existing.Confidence+0.02)
			if p.Recommendation != "" {
				existing.Recommendation = p.Recommendation
			}
			if err := s.save(); err != nil {
				return "", err
			}
			return existing.ID, nil
		}
	}

	if p.ID == "" {
		p.ID = "pat-" + shortID()
	}
	if p.FirstDetected.IsZero() {
		p.FirstDetected = now
	}
	if p.LastConfirmed.IsZero() {
		p.LastConfirmed = now
	}
	if p.Occurrences == 0 {
		p.Occurrences = 1
	}
	svc.Patterns = append(svc.Patterns, p)

	if err := s.save(); err != nil {
		return "", err
	}
	return p.ID, nil
}

// AddGlobalPattern appends a cross-service pattern (no merge invariant).
func (s *Store) AddGlobalPattern(p Pattern) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = "gpat-" + shortID()
	}
	s.mem.GlobalPatterns = append(s.mem.GlobalPatterns, p)

	if err := s.save(); err != nil {
		return "", err
	}
	return p.ID, nil
}

// GetAllPatterns flattens service-level patterns (tagged with their owning
// service) and global patterns (tagged scope="global").
func (s *Store) GetAllPatterns() []PatternView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []PatternView
	for svcName, svc := range s.mem.Services {
		for _, p := range svc.Patterns {
			results = append(results, PatternView{Pattern: p, Service: svcName})
		}
	}
	for _, p := range s.mem.GlobalPatterns {
		results = append(results, PatternView{Pattern: p, Scope: "global"})
	}
	return results
}

// GetServiceMemory returns the baseline/patterns/insights for one service.
// A service that has never been written returns an empty view — this is a
// pure read and never persists a record for a name that doesn't exist yet.
func (s *Store) GetServiceMemory(service string) (ServiceMemoryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.mem.Services[service]
	if !ok {
		svc = newServiceMemory()
	}
	return ServiceMemoryView{
		Service:         service,
		BaselineMetrics: svc.BaselineMetrics,
		Patterns:        svc.Patterns,
		Insights:        svc.Insights,
	}, nil
}

// UpdateBaseline replaces a service's baseline metrics wholesale, stamping
// measured_at.
func (s *Store) UpdateBaseline(service string, metrics map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc := s.ensureService(service)
	merged := make(map[string]any, len(metrics)+1)
	for k, v := range metrics {
		merged[k] = v
	}
	merged["measured_at"] = time.Now().UTC()
	svc.BaselineMetrics = merged

	return s.save()
}

// RecordAnalysis appends a session to the analysis history ring (cap 100).
func (s *Store) RecordAnalysis(session AnalysisSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.SessionID == "" {
		session.SessionID = "sess-" + shortID()
	}
	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now().UTC()
	}
	s.mem.AnalysisHistory = append(s.mem.AnalysisHistory, session)
	if len(s.mem.AnalysisHistory) > analysisHistoryCap {
		s.mem.AnalysisHistory = s.mem.AnalysisHistory[len(s.mem.AnalysisHistory)-analysisHistoryCap:]
	}

	if err := s.save(); err != nil {
		return "", err
	}
	return session.SessionID, nil
}

// GetRecommendations returns all open high/critical severity insights that
// carry a recommendation.
func (s *Store) GetRecommendations() []InsightView {
	open := s.GetAllInsights("open")
	var results []InsightView
	for _, in := range open {
		if (in.Severity == "high" || in.Severity == "critical") && in.Recommendation != "" {
			results = append(results, in)
		}
	}
	return results
}

func shortID() string {
	return uuid.New().String()[:8]
}
