package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

// LookupService loads dimension name-to-id maps at startup and resolves the
// add-in's display names into filter ids. All maps are process-wide read-mostly
// state behind one RWMutex; bootstrap replaces them wholesale.
type LookupService struct {
	exec netsuite.Executor
	log  *logrus.Entry

	mu           sync.RWMutex
	classes      []models.LookupItem
	departments  []models.LookupItem
	locations    []models.LookupItem
	books        []models.LookupItem
	subsidiaries []models.Subsidiary
	parents      map[int64]bool
	rootID       int64
}

// NewLookupService builds an empty lookup service; call Bootstrap before use
func NewLookupService(exec netsuite.Executor) *LookupService {
	return &LookupService{
		exec:    exec,
		log:     logrus.WithField("component", "lookups"),
		parents: make(map[int64]bool),
		rootID:  1,
	}
}

// Bootstrap loads every lookup dimension. A single failed lookup logs and
// leaves its map empty; name resolution then falls through to identity.
func (s *LookupService) Bootstrap(ctx context.Context) {
	classes := s.loadItems(ctx, "classes", sqlbuilder.Classes())
	departments := s.loadItems(ctx, "departments", sqlbuilder.Departments())
	locations := s.loadItems(ctx, "locations", sqlbuilder.Locations())
	books := s.loadItems(ctx, "accountingbooks", sqlbuilder.AccountingBooks())
	subsidiaries, parents := s.loadSubsidiaries(ctx)
	rootID := s.detectConsolidationRoot(ctx)

	s.mu.Lock()
	s.classes = classes
	s.departments = departments
	s.locations = locations
	s.books = books
	s.subsidiaries = subsidiaries
	s.parents = parents
	s.rootID = rootID
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"classes":      len(classes),
		"departments":  len(departments),
		"locations":    len(locations),
		"books":        len(books),
		"subsidiaries": len(subsidiaries),
		"root":         rootID,
	}).Info("lookup bootstrap complete")
}

func (s *LookupService) loadItems(ctx context.Context, name, sql string) []models.LookupItem {
	rows, err := s.exec.Query(ctx, sql)
	if err != nil {
		s.log.WithError(err).WithField("lookup", name).Warn("lookup load failed, continuing with empty map")
		return nil
	}
	items := make([]models.LookupItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.LookupItem{ID: row.Int("id"), Name: row.String("name")})
	}
	return items
}

func (s *LookupService) loadSubsidiaries(ctx context.Context) ([]models.Subsidiary, map[int64]bool) {
	parents := make(map[int64]bool)
	rows, err := s.exec.Query(ctx, sqlbuilder.Subsidiaries())
	if err != nil {
		s.log.WithError(err).Warn("subsidiary load failed, continuing with empty map")
		return nil, parents
	}
	subs := make([]models.Subsidiary, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, models.Subsidiary{
			ID:            row.Int("id"),
			Name:          row.String("name"),
			ParentID:      row.Int("parent"),
			IsInactive:    row.Bool("isinactive"),
			IsElimination: row.Bool("iselimination"),
		})
	}
	for _, sub := range subs {
		if sub.ParentID > 0 {
			parents[sub.ParentID] = true
		}
	}
	return subs, parents
}

func (s *LookupService) detectConsolidationRoot(ctx context.Context) int64 {
	rows, err := s.exec.Query(ctx, sqlbuilder.ConsolidationRoot())
	if err != nil || len(rows) == 0 {
		s.log.WithError(err).Warn("consolidation root detection failed, falling back to subsidiary 1")
		return 1
	}
	return rows[0].Int("id")
}

// ConsolidationRoot is the default target subsidiary for the consolidation
// builtin when the caller does not name one.
func (s *LookupService) ConsolidationRoot() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootID
}

// SubsidiaryCount reports how many subsidiaries were loaded; /health exposes it
func (s *LookupService) SubsidiaryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subsidiaries)
}

// AllLookups is the payload of /lookups/all. Parent subsidiaries appear twice,
// once plain and once with the " (Consolidated)" display suffix and the same
// id; the suffix is presentation only and never reaches SQL.
type AllLookups struct {
	Subsidiaries    []models.LookupItem `json:"subsidiaries"`
	Departments     []models.LookupItem `json:"departments"`
	Classes         []models.LookupItem `json:"classes"`
	Locations       []models.LookupItem `json:"locations"`
	AccountingBooks []models.LookupItem `json:"accountingBooks"`
}

// All returns every lookup dimension shaped for the add-in
func (s *LookupService) All() AllLookups {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]models.LookupItem, 0, len(s.subsidiaries)*2)
	for _, sub := range s.subsidiaries {
		if sub.IsInactive {
			continue
		}
		subs = append(subs, models.LookupItem{ID: sub.ID, Name: sub.Name})
		if s.parents[sub.ID] {
			subs = append(subs, models.LookupItem{ID: sub.ID, Name: sub.Name + models.ConsolidatedSuffix})
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].ID != subs[j].ID {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].Name < subs[j].Name
	})

	return AllLookups{
		Subsidiaries:    subs,
		Departments:     append([]models.LookupItem(nil), s.departments...),
		Classes:         append([]models.LookupItem(nil), s.classes...),
		Locations:       append([]models.LookupItem(nil), s.locations...),
		AccountingBooks: append([]models.LookupItem(nil), s.books...),
	}
}

// AccountingBooks returns the configured books
func (s *LookupService) AccountingBooks() []models.LookupItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LookupItem(nil), s.books...)
}

// FilterInput is the raw filter bundle as the add-in sends it: each dimension
// may be an id or a display name.
type FilterInput struct {
	Subsidiary     string `json:"subsidiary,omitempty" form:"subsidiary"`
	Department     string `json:"department,omitempty" form:"department"`
	Location       string `json:"location,omitempty" form:"location"`
	Class          string `json:"class,omitempty" form:"class"`
	AccountingBook string `json:"accountingBook,omitempty" form:"accountingBook"`
}

// ResolveFilters maps display names to ids. A dimension that fails to resolve
// logs a warning and stays unset rather than failing the request.
func (s *LookupService) ResolveFilters(in FilterInput) models.FilterBundle {
	f := models.FilterBundle{AccountingBook: models.DefaultAccountingBook}

	if id, ok := s.resolveSubsidiary(in.Subsidiary); ok {
		f.SubsidiaryID = id
	} else if in.Subsidiary != "" {
		s.log.WithField("subsidiary", in.Subsidiary).Warn("unresolvable subsidiary filter, proceeding unset")
	}
	if id, ok := resolveAgainst(s.snapshot(&s.departments), in.Department); ok {
		f.DepartmentID = id
	} else if in.Department != "" {
		s.log.WithField("department", in.Department).Warn("unresolvable department filter, proceeding unset")
	}
	if id, ok := resolveAgainst(s.snapshot(&s.locations), in.Location); ok {
		f.LocationID = id
	} else if in.Location != "" {
		s.log.WithField("location", in.Location).Warn("unresolvable location filter, proceeding unset")
	}
	if id, ok := resolveAgainst(s.snapshot(&s.classes), in.Class); ok {
		f.ClassID = id
	} else if in.Class != "" {
		s.log.WithField("class", in.Class).Warn("unresolvable class filter, proceeding unset")
	}
	if id, ok := resolveAgainst(s.snapshot(&s.books), in.AccountingBook); ok {
		f.AccountingBook = id
	}
	return f
}

func (s *LookupService) snapshot(items *[]models.LookupItem) []models.LookupItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *items
}

func (s *LookupService) resolveSubsidiary(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	s.mu.RLock()
	items := make([]models.LookupItem, 0, len(s.subsidiaries))
	for _, sub := range s.subsidiaries {
		items = append(items, models.LookupItem{ID: sub.ID, Name: sub.Name})
	}
	s.mu.RUnlock()
	return resolveAgainst(items, value)
}

// resolveAgainst applies the resolution ladder: exact match, case-insensitive
// match, strip a trailing " (Consolidated)" and retry, then numeric id.
func resolveAgainst(items []models.LookupItem, value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	for _, item := range items {
		if item.Name == value {
			return item.ID, true
		}
	}
	for _, item := range items {
		if strings.EqualFold(item.Name, value) {
			return item.ID, true
		}
	}
	if strings.HasSuffix(value, models.ConsolidatedSuffix) {
		return resolveAgainst(items, strings.TrimSuffix(value, models.ConsolidatedSuffix))
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
		return id, true
	}
	return 0, false
}
