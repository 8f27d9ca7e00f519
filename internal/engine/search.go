// Package engine - Search Compiler
// Turns a request-shaped set of filter parameters into one tenant-scoped
// lookup across the structured product table and the attribute store.
package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aethra/catalog/internal/config"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/aethra/catalog/internal/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Result-restriction modes
const (
	ModeAll       = "all"
	ModePrimary   = "primary"
	ModeSecondary = "secondary"
)

// Pagination defaults, overridable through system_config
const (
	defaultSearchLimit = 100
	maxSearchLimit     = 500
)

// Filter provenance reasons
const (
	ReasonUnknownField  = "unknown field"
	ReasonNotSearchable = "not searchable"
	ReasonEmptyFilter   = "empty filter"
	ReasonExactWins     = "exact value takes precedence"
	ReasonNotNumeric    = "not a numeric field"
	ReasonNoSearchable  = "no searchable fields configured"
)

// SearchRequest is a request-shaped set of filter parameters
type SearchRequest struct {
	// Filters maps field name to a raw filter value. Comma-separated values
	// form a membership set; <field>_min / <field>_max form numeric ranges.
	Filters map[string]string `json:"filters"`
	// Query is matched with contains semantics against every searchable field
	Query string `json:"query"`
	// Mode restricts results to products having a primary/secondary field
	Mode  string `json:"mode"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}

// AppliedFilter reports whether one submitted filter was applied
type AppliedFilter struct {
	Field   string   `json:"field"`
	Applied bool     `json:"applied"`
	Reason  string   `json:"reason,omitempty"`
	Values  []string `json:"values,omitempty"`
}

// SearchResult is a page of matching products with filter provenance
type SearchResult struct {
	Items          []models.Product `json:"items"`
	TotalCount     int64            `json:"total_count"`
	Skip           int              `json:"skip"`
	Limit          int              `json:"limit"`
	AppliedFilters []AppliedFilter  `json:"applied_filters"`
}

// fieldKind is resolved once per submitted field name, before any predicate
// is built, so the predicate code dispatches over an explicit enum.
type fieldKind int

const (
	fieldKindStandard fieldKind = iota
	fieldKindDynamic
	fieldKindUnknown
)

// SearchEngine compiles filter requests into tenant-scoped queries
type SearchEngine struct {
	db        *gorm.DB
	attrs     *AttributeStore
	discovery *DiscoveryEngine
	configs   *FieldConfigEngine
	cfg       *config.Service
}

// NewSearchEngine creates a new search engine. cfg may be nil; built-in
// pagination defaults apply.
func NewSearchEngine(db *gorm.DB, attrs *AttributeStore, discovery *DiscoveryEngine, configs *FieldConfigEngine, cfg *config.Service) *SearchEngine {
	return &SearchEngine{db: db, attrs: attrs, discovery: discovery, configs: configs, cfg: cfg}
}

// Search executes one filter request. Unknown field names are never an
// error: they are ignored and reported back, since callers routinely probe
// nonexistent facets. Invalid numeric tokens are a hard error.
func (e *SearchEngine) Search(tenantID uuid.UUID, req SearchRequest) (*SearchResult, error) {
	skip, limit := clampPagination(e.cfg, req.Skip, req.Limit)

	live, err := e.discovery.FieldSet(tenantID)
	if err != nil {
		return nil, err
	}
	searchable, err := e.configs.SearchableFields(tenantID)
	if err != nil {
		return nil, err
	}

	// Tenant scoping is the outermost, non-optional predicate.
	query := e.db.Model(&models.Product{}).Where("products.tenant_id = ?", tenantID)

	plain, ranges := partitionFilters(req.Filters, live)
	var applied []AppliedFilter

	for _, name := range sortedKeys(plain) {
		status, cond, err := e.compileMembership(tenantID, name, plain[name], live, searchable)
		if err != nil {
			return nil, err
		}
		applied = append(applied, status)
		if cond != nil {
			query = cond(query)
		}
	}

	for _, base := range sortedKeys(ranges) {
		bounds := ranges[base]
		_, hasExact := plain[base]
		statuses, cond, err := e.compileRange(tenantID, base, bounds, hasExact, live, searchable)
		if err != nil {
			return nil, err
		}
		applied = append(applied, statuses...)
		if cond != nil {
			query = cond(query)
		}
	}

	if q := strings.TrimSpace(req.Query); q != "" {
		status, cond := e.compileFreeText(tenantID, q, searchable)
		applied = append(applied, status)
		if cond != nil {
			query = cond(query)
		}
	}

	modeCond, err := e.compileMode(tenantID, req.Mode)
	if err != nil {
		return nil, err
	}
	if modeCond != nil {
		query = modeCond(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	// Pagination applies after filtering; id-ascending order keeps repeated
	// calls stable over unchanged data.
	var items []models.Product
	err = query.Preload("Attributes").
		Order("products.id ASC").
		Offset(skip).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Items:          items,
		TotalCount:     total,
		Skip:           skip,
		Limit:          limit,
		AppliedFilters: applied,
	}, nil
}

type predicate func(*gorm.DB) *gorm.DB

// rangeBounds collects the _min/_max parameters submitted for one base field
type rangeBounds struct {
	min *string
	max *string
}

// partitionFilters splits raw filters into plain filters and range bounds.
// A key is only treated as a range bound when it is not itself a live field
// name and its base is.
func partitionFilters(filters map[string]string, live map[string]FieldInfo) (map[string]string, map[string]*rangeBounds) {
	plain := make(map[string]string)
	ranges := make(map[string]*rangeBounds)

	bound := func(base string, isMin bool, raw string) {
		b := ranges[base]
		if b == nil {
			b = &rangeBounds{}
			ranges[base] = b
		}
		if isMin {
			b.min = &raw
		} else {
			b.max = &raw
		}
	}

	for name, raw := range filters {
		if _, isLive := live[name]; !isLive {
			if base, ok := strings.CutSuffix(name, "_min"); ok && base != "" {
				bound(base, true, raw)
				continue
			}
			if base, ok := strings.CutSuffix(name, "_max"); ok && base != "" {
				bound(base, false, raw)
				continue
			}
		}
		plain[name] = raw
	}
	return plain, ranges
}

func resolveKind(name string, live map[string]FieldInfo) fieldKind {
	info, ok := live[name]
	if !ok {
		return fieldKindUnknown
	}
	if info.IsStandard {
		return fieldKindStandard
	}
	return fieldKindDynamic
}

// compileMembership builds the comma-membership predicate for one field:
// OR across the value set, AND against everything else.
func (e *SearchEngine) compileMembership(tenantID uuid.UUID, name, raw string, live map[string]FieldInfo, searchable map[string]models.FieldConfiguration) (AppliedFilter, predicate, error) {
	values := splitFilterValues(raw)
	if len(values) == 0 {
		return AppliedFilter{Field: name, Reason: ReasonEmptyFilter}, nil, nil
	}

	switch resolveKind(name, live) {
	case fieldKindUnknown:
		return AppliedFilter{Field: name, Reason: ReasonUnknownField}, nil, nil

	case fieldKindStandard:
		// Standard columns are always directly filterable.
		cond, err := standardMembership(name, values)
		if err != nil {
			return AppliedFilter{}, nil, err
		}
		return AppliedFilter{Field: name, Applied: true, Values: values}, cond, nil

	default:
		// Dynamic attributes are only filterable when configured searchable.
		if _, ok := searchable[name]; !ok {
			return AppliedFilter{Field: name, Reason: ReasonNotSearchable}, nil, nil
		}
		if live[name].SampleType == FieldTypeNumber {
			values = normalizeNumericValues(values)
		}
		cond := func(q *gorm.DB) *gorm.DB {
			return q.Where(
				"EXISTS (SELECT 1 FROM product_attributes pa WHERE pa.tenant_id = ? AND pa.product_id = products.id AND pa.field_name = ? AND pa.field_value IN ?)",
				tenantID, name, values,
			)
		}
		return AppliedFilter{Field: name, Applied: true, Values: values}, cond, nil
	}
}

// standardMembership builds the predicate for a fixed product column
func standardMembership(name string, values []string) (predicate, error) {
	switch StandardFieldType(name) {
	case FieldTypeNumber:
		nums := make([]float64, 0, len(values))
		for _, v := range values {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, catalogerrors.NewInvalidFilterError(name, v)
			}
			nums = append(nums, n)
		}
		return func(q *gorm.DB) *gorm.DB {
			return q.Where("products."+name+" IN ?", nums)
		}, nil
	default:
		return func(q *gorm.DB) *gorm.DB {
			return q.Where("products."+name+" IN ?", values)
		}, nil
	}
}

// compileRange builds min/max predicates for one base field. Exact and
// range are mutually exclusive per field; exact wins.
func (e *SearchEngine) compileRange(tenantID uuid.UUID, base string, bounds *rangeBounds, hasExact bool, live map[string]FieldInfo, searchable map[string]models.FieldConfiguration) ([]AppliedFilter, predicate, error) {
	report := func(applied bool, reason string) []AppliedFilter {
		var statuses []AppliedFilter
		if bounds.min != nil {
			statuses = append(statuses, AppliedFilter{Field: base + "_min", Applied: applied, Reason: reason})
		}
		if bounds.max != nil {
			statuses = append(statuses, AppliedFilter{Field: base + "_max", Applied: applied, Reason: reason})
		}
		return statuses
	}

	kind := resolveKind(base, live)
	if kind == fieldKindUnknown {
		return report(false, ReasonUnknownField), nil, nil
	}
	if live[base].SampleType != FieldTypeNumber {
		return report(false, ReasonNotNumeric), nil, nil
	}
	if hasExact {
		return report(false, ReasonExactWins), nil, nil
	}

	var min, max *float64
	if bounds.min != nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(*bounds.min), 64)
		if err != nil {
			return nil, nil, catalogerrors.NewInvalidFilterError(base+"_min", *bounds.min)
		}
		min = &n
	}
	if bounds.max != nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(*bounds.max), 64)
		if err != nil {
			return nil, nil, catalogerrors.NewInvalidFilterError(base+"_max", *bounds.max)
		}
		max = &n
	}

	if kind == fieldKindStandard {
		cond := func(q *gorm.DB) *gorm.DB {
			if min != nil {
				q = q.Where("products."+base+" >= ?", *min)
			}
			if max != nil {
				q = q.Where("products."+base+" <= ?", *max)
			}
			return q
		}
		return report(true, ""), cond, nil
	}

	if _, ok := searchable[base]; !ok {
		return report(false, ReasonNotSearchable), nil, nil
	}
	cond := func(q *gorm.DB) *gorm.DB {
		sub := "EXISTS (SELECT 1 FROM product_attributes pa WHERE pa.tenant_id = ? AND pa.product_id = products.id AND pa.field_name = ? AND pa.field_type = 'number'"
		args := []interface{}{tenantID, base}
		if min != nil {
			sub += " AND CAST(pa.field_value AS NUMERIC) >= ?"
			args = append(args, *min)
		}
		if max != nil {
			sub += " AND CAST(pa.field_value AS NUMERIC) <= ?"
			args = append(args, *max)
		}
		sub += ")"
		return q.Where(sub, args...)
	}
	return report(true, ""), cond, nil
}

// compileFreeText matches the query, contains semantics, against the union
// of all searchable fields; a product matches if any of them contains it.
func (e *SearchEngine) compileFreeText(tenantID uuid.UUID, q string, searchable map[string]models.FieldConfiguration) (AppliedFilter, predicate) {
	var standardCols, dynamicFields []string
	for _, name := range sortedKeys(searchable) {
		if IsStandardField(name) {
			standardCols = append(standardCols, name)
		} else {
			dynamicFields = append(dynamicFields, name)
		}
	}
	if len(standardCols) == 0 && len(dynamicFields) == 0 {
		return AppliedFilter{Field: "q", Reason: ReasonNoSearchable}, nil
	}

	pattern := strings.ToLower(security.ContainsPattern(q))
	var parts []string
	var args []interface{}
	for _, col := range standardCols {
		expr := "products." + col
		if StandardFieldType(col) == FieldTypeNumber {
			expr = "CAST(" + expr + " AS TEXT)"
		}
		parts = append(parts, `LOWER(`+expr+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if len(dynamicFields) > 0 {
		parts = append(parts,
			`EXISTS (SELECT 1 FROM product_attributes pa WHERE pa.tenant_id = ? AND pa.product_id = products.id AND pa.field_name IN ? AND LOWER(pa.field_value) LIKE ? ESCAPE '\')`)
		args = append(args, tenantID, dynamicFields, pattern)
	}

	cond := func(query *gorm.DB) *gorm.DB {
		return query.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	return AppliedFilter{Field: "q", Applied: true, Values: []string{q}}, cond
}

// compileMode restricts results to products having at least one field
// flagged primary (or secondary). With nothing flagged, nothing matches.
func (e *SearchEngine) compileMode(tenantID uuid.UUID, mode string) (predicate, error) {
	var flagged map[string]models.FieldConfiguration
	var err error
	switch mode {
	case "", ModeAll:
		return nil, nil
	case ModePrimary:
		flagged, err = e.configs.PrimaryFields(tenantID)
	case ModeSecondary:
		flagged, err = e.configs.SecondaryFields(tenantID)
	default:
		return nil, catalogerrors.NewValidationError("mode", "mode must be one of all, primary, secondary")
	}
	if err != nil {
		return nil, err
	}

	if len(flagged) == 0 {
		return func(q *gorm.DB) *gorm.DB { return q.Where("1 = 0") }, nil
	}

	var parts []string
	var args []interface{}
	var dynamicFields []string
	for _, name := range sortedKeys(flagged) {
		if !IsStandardField(name) {
			dynamicFields = append(dynamicFields, name)
			continue
		}
		if StandardFieldType(name) == FieldTypeNumber {
			parts = append(parts, "products."+name+" IS NOT NULL")
		} else {
			parts = append(parts, "(products."+name+" IS NOT NULL AND products."+name+" <> '')")
		}
	}
	if len(dynamicFields) > 0 {
		parts = append(parts,
			"EXISTS (SELECT 1 FROM product_attributes pa WHERE pa.tenant_id = ? AND pa.product_id = products.id AND pa.field_name IN ?)")
		args = append(args, tenantID, dynamicFields)
	}

	return func(q *gorm.DB) *gorm.DB {
		return q.Where("("+strings.Join(parts, " OR ")+")", args...)
	}, nil
}

// clampPagination applies defaults and bounds to skip/limit
func clampPagination(cfg *config.Service, skip, limit int) (int, int) {
	def, max := defaultSearchLimit, maxSearchLimit
	if cfg != nil {
		def = cfg.GetInt(config.KeyDefaultPageSize, def)
		max = cfg.GetInt(config.KeyMaxPageSize, max)
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return skip, limit
}

// normalizeNumericValues rewrites numeric candidates into the canonical
// stored form ("10.0" matches a stored "10")
func normalizeNumericValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, NewTypedValue(v, FieldTypeNumber).String())
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
