// The recursive value-vs-definition algorithm and the four entry
// points of §4.5.1: validate_descriptor, validate_definition,
// validate_object, validate_objects.
package validator

import (
	"context"
	"fmt"
	"sort"

	"github.com/orneryd/dictionarydb/internal/convert"
	"github.com/orneryd/dictionarydb/internal/datamerge"
	"github.com/orneryd/dictionarydb/internal/dateutil"
	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/orneryd/dictionarydb/internal/dicthash"
	"github.com/orneryd/dictionarydb/internal/dictionary"
	"github.com/orneryd/dictionarydb/internal/geo"
	"github.com/orneryd/dictionarydb/internal/numeric"
	"github.com/orneryd/dictionarydb/internal/objectrule"
	"github.com/orneryd/dictionarydb/internal/reqcache"
	"github.com/orneryd/dictionarydb/internal/term"
	"github.com/orneryd/dictionarydb/internal/textutil"
	"github.com/orneryd/dictionarydb/pkg/store"
)

// TermLookup is the subset of internal/term.Store the validator needs.
type TermLookup interface {
	Get(handle string) (store.Document, error)
	Exists(handle string) (bool, error)
}

// Validator is the Validator (component E): it walks a value against a
// data definition, reporting the first taxonomy violation it hits
// (§4.5.4's single Status, rather than an accumulated violation list).
type Validator struct {
	terms    TermLookup
	resolver *dictionary.Resolver
}

// New builds a Validator over a term lookup and the Dictionary Resolver
// it delegates resolution and enumeration-membership checks to.
func New(terms TermLookup, resolver *dictionary.Resolver) *Validator {
	return &Validator{terms: terms, resolver: resolver}
}

// requestState is the per-call scratch space of §5: a fresh reqcache
// and change-report accumulator, created here and discarded when the
// top-level call returns — never shared across requests.
type requestState struct {
	opts    Options
	cache   *reqcache.Cache[store.Document]
	changes map[string]Change
}

func newRequestState(opts Options) *requestState {
	return &requestState{
		opts:    opts,
		cache:   reqcache.New[store.Document](opts.CacheMissed),
		changes: map[string]Change{},
	}
}

func (r *requestState) recordChange(path []string, original, resolved any) {
	key := dicthash.ChangeHash(pathStr(path))
	r.changes[key] = Change{Field: pathStr(path), Original: original, Resolved: resolved}
}

func pathStr(path []string) string { return dicthash.ChangePath(path...) }

// ValidateDescriptor resolves descriptorGID to a term, requires it to
// be a descriptor, and validates value against its _data definition
// (§4.5.1).
func (v *Validator) ValidateDescriptor(ctx context.Context, descriptorGID string, value any, language string, opts Options) *Report {
	req := newRequestState(opts)

	doc, matches, err := v.resolver.ResolveTerm(descriptorGID, term.FieldGID, "")
	if err != nil {
		return failureReport(err, req.changes)
	}
	if matches == 0 {
		return failureReport(dicterr.New(dicterr.InvalidReference, fmt.Sprintf("descriptor %q not found", descriptorGID)), req.changes)
	}
	if !term.IsDescriptor(doc) {
		return failureReport(dicterr.New(dicterr.NotDescriptor, fmt.Sprintf("%q is not a descriptor", descriptorGID)), req.changes)
	}

	rawDef, _ := doc[term.SectionData].(map[string]any)
	def, err := ParseDefinition(rawDef, opts.ExpectTypes)
	if err != nil {
		return failureReport(err, req.changes)
	}
	if err := v.validateValue(ctx, req, def, value, nil); err != nil {
		return failureReport(err, req.changes)
	}
	return successReport(req.changes)
}

// ValidateDefinition validates value directly against a raw data
// definition, without requiring it to be owned by a stored descriptor
// (§4.5.1).
func (v *Validator) ValidateDefinition(ctx context.Context, rawDefinition map[string]any, value any, language string, opts Options) *Report {
	req := newRequestState(opts)

	def, err := ParseDefinition(rawDefinition, opts.ExpectTypes)
	if err != nil {
		return failureReport(err, req.changes)
	}
	if err := v.validateValue(ctx, req, def, value, nil); err != nil {
		return failureReport(err, req.changes)
	}
	return successReport(req.changes)
}

// ValidateObject validates a full term-shaped document: its _code and
// _info sections are structurally required, and a _data or _rule
// section present on it must itself be a well-formed definition/rule
// (§4.5.1, SUPPLEMENTED: term upload validation, not named as a
// separate operation by the distilled spec but required by any caller
// that inserts terms through this layer rather than directly through
// the Term Store).
func (v *Validator) ValidateObject(ctx context.Context, object map[string]any, language string, opts Options) *Report {
	req := newRequestState(opts)
	if err := v.validateTermShape(object, opts); err != nil {
		return failureReport(err, req.changes)
	}
	if err := v.checkLockedProperties(object); err != nil {
		return failureReport(err, req.changes)
	}
	return successReport(req.changes)
}

// checkLockedProperties enforces §3.3's _locked clause on a term update:
// when object's own _rule names _locked _data keys and a prior version
// of this term already exists, none of those keys may change value
// (objectrule.IsLocked's documented contract). Nothing to compare
// against on first insert, so a missing or unreachable previous version
// is not itself a violation.
func (v *Validator) checkLockedProperties(object map[string]any) error {
	rawRule, ok := object[term.SectionRule].(map[string]any)
	if !ok {
		return nil
	}
	rule := objectrule.Parse(rawRule)
	if len(rule.Locked) == 0 {
		return nil
	}

	code, _ := object[term.SectionCode].(map[string]any)
	lid, _ := code[term.FieldLID].(string)
	if lid == "" {
		return nil
	}
	exists, err := v.terms.Exists(lid)
	if err != nil || !exists {
		return nil
	}
	previous, err := v.terms.Get(lid)
	if err != nil {
		return nil
	}

	oldData, _ := previous[term.SectionData].(map[string]any)
	newData, _ := object[term.SectionData].(map[string]any)
	for key, oldVal := range oldData {
		if !objectrule.IsLocked(rule, key) {
			continue
		}
		newVal, stillPresent := newData[key]
		if !stillPresent || !datamerge.Equal(oldVal, newVal) {
			return dicterr.New(dicterr.ObjectRuleViolation,
				fmt.Sprintf("property %q is locked and cannot change once set", key))
		}
	}
	return nil
}

// ValidateObjects runs ValidateObject over each item independently.
func (v *Validator) ValidateObjects(ctx context.Context, objects []map[string]any, language string, opts Options) []*Report {
	reports := make([]*Report, len(objects))
	for i, obj := range objects {
		reports[i] = v.ValidateObject(ctx, obj, language, opts)
	}
	return reports
}

func (v *Validator) validateTermShape(object map[string]any, opts Options) error {
	code, ok := object[term.SectionCode].(map[string]any)
	if !ok {
		return dicterr.New(dicterr.DefinitionError, "term object missing required _code section")
	}
	if lid, _ := code[term.FieldLID].(string); lid == "" {
		return dicterr.New(dicterr.DefinitionError, "term _code section missing required _lid")
	}

	info, ok := object[term.SectionInfo].(map[string]any)
	if !ok {
		return dicterr.New(dicterr.DefinitionError, "term object missing required _info section")
	}
	if _, ok := info["_title"].(map[string]any); !ok {
		return dicterr.New(dicterr.DefinitionError, "term _info section missing required _title")
	}

	if rawDef, ok := object[term.SectionData].(map[string]any); ok {
		if _, err := ParseDefinition(rawDef, opts.ExpectTypes); err != nil {
			return err
		}
	}
	if rawRule, ok := object[term.SectionRule].(map[string]any); ok {
		objectrule.Parse(rawRule)
	}
	return nil
}

// validateValue is the §4.5.2 recursive core: classify (already done by
// the caller into def), shape-check V against the container, then
// dispatch to the container-specific branch.
func (v *Validator) validateValue(ctx context.Context, req *requestState, def *Definition, value any, path []string) error {
	select {
	case <-ctx.Done():
		return dicterr.Wrap(dicterr.DefinitionError, "validation cancelled", ctx.Err())
	default:
	}

	switch def.Container {
	case ContainerScalar:
		return v.validateScalar(ctx, req, def, value, path)
	case ContainerArray:
		return v.validateSequence(ctx, req, def, value, path, false)
	case ContainerSet:
		return v.validateSequence(ctx, req, def, value, path, true)
	case ContainerDict:
		return v.validateDict(ctx, req, def, value, path)
	case ContainerObject:
		return v.validateObjectValue(ctx, req, def, value, path)
	default:
		return dicterr.New(dicterr.DefinitionError, fmt.Sprintf("%s: unrecognized container", pathStr(path)))
	}
}

func kindMismatch(path []string, want string) error {
	return dicterr.New(dicterr.KindMismatch, fmt.Sprintf("%s: expected a %s value", pathStr(path), want))
}

func (v *Validator) validateScalar(ctx context.Context, req *requestState, def *Definition, value any, path []string) error {
	switch def.Type {
	case TypeBoolean:
		if !convert.IsBoolean(value) {
			return kindMismatch(path, "boolean")
		}
		return nil

	case TypeInteger:
		if !convert.IsInteger(value) {
			return kindMismatch(path, "integer")
		}
		return checkNumericRange(def, value, path)

	case TypeNumber:
		if !convert.IsNumber(value) {
			return kindMismatch(path, "number")
		}
		return checkNumericRange(def, value, path)

	case TypeTimestamp:
		s, ok := convert.AsString(value)
		if !ok {
			return kindMismatch(path, "timestamp")
		}
		ok, err := dateutil.Validate(def.DKind, s)
		if err != nil {
			return dicterr.Wrap(dicterr.DefinitionError, "invalid _dkind", err)
		}
		if !ok {
			return dicterr.New(dicterr.FormatError, fmt.Sprintf("%s: timestamp does not match the declared _dkind granularity", pathStr(path)))
		}
		return nil

	case TypeString:
		s, ok := convert.AsString(value)
		if !ok {
			return kindMismatch(path, "string")
		}
		return v.checkStringConstraints(def, s, path)

	case TypeStringEnum:
		s, ok := convert.AsString(value)
		if !ok {
			return kindMismatch(path, "string_enum")
		}
		return v.validateStringEnum(ctx, req, def, s, path)

	case TypeStringKey:
		s, ok := convert.AsString(value)
		if !ok {
			return kindMismatch(path, "string_key")
		}
		return v.checkStringKey(req, s, path)

	case TypeStringHandle:
		s, ok := convert.AsString(value)
		if !ok {
			return kindMismatch(path, "string_handle")
		}
		return v.checkStringHandle(req, s, path)

	case TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return kindMismatch(path, "object")
		}
		return nil

	case TypeGeoJSON:
		if err := geo.Validate(value); err != nil {
			return dicterr.Wrap(dicterr.TypeMismatch, err.Error(), err)
		}
		return nil

	default:
		return dicterr.New(dicterr.DefinitionError, fmt.Sprintf("%s: unrecognized scalar _type %q", pathStr(path), def.Type))
	}
}

func checkNumericRange(def *Definition, value any, path []string) error {
	f, _ := convert.AsFloat64(value)
	if def.MRange != nil && !numeric.InInclusiveRange(f, *def.MRange) {
		return dicterr.New(dicterr.RangeViolation, fmt.Sprintf("%s: value outside the declared _mrange", pathStr(path)))
	}
	if def.NRange != nil && !numeric.InExclusiveRange(f, *def.NRange) {
		return dicterr.New(dicterr.RangeViolation, fmt.Sprintf("%s: value outside the declared _nrange", pathStr(path)))
	}
	return nil
}

func (v *Validator) checkStringConstraints(def *Definition, s string, path []string) error {
	if def.Regex != "" {
		ok, err := textutil.MatchesRegex(def.Regex, s)
		if err != nil {
			return dicterr.Wrap(dicterr.DefinitionError, "invalid _regex", err)
		}
		if !ok {
			return dicterr.New(dicterr.PatternMismatch, fmt.Sprintf("%s: value does not match the declared _regex", pathStr(path)))
		}
	}
	if def.Format != "" {
		ok, err := textutil.MatchesFormat(def.Format, s)
		if err != nil {
			return dicterr.Wrap(dicterr.DefinitionError, "invalid _format", err)
		}
		if !ok {
			return dicterr.New(dicterr.FormatError, fmt.Sprintf("%s: value does not match the declared _format %q", pathStr(path), def.Format))
		}
	}
	return nil
}

// resolveHandleByGID resolves a term _gid to its handle (_lid), caching
// the lookup (and, when enabled, the negative result) in req's cache.
func (v *Validator) resolveHandleByGID(req *requestState, gid string) (handle string, found bool, err error) {
	cacheKey := "gid:" + gid
	if req.opts.UseCache {
		if doc, f, known := req.cache.Get(cacheKey); known {
			if !f {
				return "", false, nil
			}
			code, _ := doc[term.SectionCode].(map[string]any)
			h, _ := code[term.FieldLID].(string)
			return h, true, nil
		}
	}

	doc, matches, err := v.resolver.ResolveTerm(gid, term.FieldGID, "")
	if err != nil {
		return "", false, err
	}
	found = matches == 1
	if req.opts.UseCache && (found || req.opts.CacheMissed) {
		if found {
			req.cache.Remember(cacheKey, doc, true)
		} else {
			req.cache.Remember(cacheKey, nil, false)
		}
	}
	if !found {
		return "", false, nil
	}
	code, _ := doc[term.SectionCode].(map[string]any)
	handle, _ = code[term.FieldLID].(string)
	return handle, true, nil
}

// isEnumMember reports whether gidValue is itself one of def.Kind's
// roots or a descendant of one via enum-of, resolving each root gid to
// its handle before delegating membership to the Dictionary Resolver.
func (v *Validator) isEnumMember(ctx context.Context, req *requestState, def *Definition, gidValue string) (bool, error) {
	for _, rootGID := range def.Kind {
		rootHandle, found, err := v.resolveHandleByGID(req, rootGID)
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}
		checked, err := v.resolver.CheckCodes(ctx, rootHandle, term.FieldGID, []string{gidValue})
		if err != nil {
			return false, err
		}
		if checked[gidValue] {
			return true, nil
		}
	}
	return false, nil
}

// validateStringEnum implements §4.5.2 step 3's string_enum branch:
// value must name a _gid reachable from one of def.Kind's roots via
// enum-of; when Resolve is set and direct membership fails, value is
// instead treated as a resolve_field reference whose resolved _gid is
// then membership-checked, recording the substitution as a Change.
func (v *Validator) validateStringEnum(ctx context.Context, req *requestState, def *Definition, value string, path []string) error {
	member, err := v.isEnumMember(ctx, req, def, value)
	if err != nil {
		return err
	}
	if member {
		return nil
	}

	if req.opts.Resolve {
		doc, matches, err := v.resolver.ResolveTerm(value, req.opts.ResolveField, "")
		if err != nil {
			return err
		}
		if matches == 1 {
			code, _ := doc[term.SectionCode].(map[string]any)
			gid, _ := code[term.FieldGID].(string)
			if gid != "" {
				resolvedMember, err := v.isEnumMember(ctx, req, def, gid)
				if err != nil {
					return err
				}
				if resolvedMember {
					req.recordChange(path, value, gid)
					return nil
				}
			}
		}
	}

	return dicterr.New(dicterr.EnumNotMember, fmt.Sprintf("%s: %q is not a member of the named enumeration", pathStr(path), value))
}

func (v *Validator) checkStringKey(req *requestState, value string, path []string) error {
	cacheKey := "key:" + value
	if req.opts.UseCache {
		if _, found, known := req.cache.Get(cacheKey); known {
			if !found {
				return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("%s: string_key %q does not reference an existing term", pathStr(path), value))
			}
			return nil
		}
	}

	_, matches, err := v.resolver.ResolveTerm(value, "", "")
	if err != nil {
		return err
	}
	found := matches == 1
	if req.opts.UseCache && (found || req.opts.CacheMissed) {
		req.cache.Remember(cacheKey, store.Document{}, found)
	}
	if !found {
		return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("%s: string_key %q does not reference an existing term", pathStr(path), value))
	}
	return nil
}

func (v *Validator) checkStringHandle(req *requestState, value string, path []string) error {
	cacheKey := "handle:" + value
	if req.opts.UseCache {
		if _, found, known := req.cache.Get(cacheKey); known {
			if !found {
				return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("%s: string_handle %q does not reference an existing term", pathStr(path), value))
			}
			return nil
		}
	}

	exists, err := v.terms.Exists(value)
	if err != nil {
		return err
	}
	if req.opts.UseCache && (exists || req.opts.CacheMissed) {
		req.cache.Remember(cacheKey, store.Document{}, exists)
	}
	if !exists {
		return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("%s: string_handle %q does not reference an existing term", pathStr(path), value))
	}
	return nil
}

func (v *Validator) validateSequence(ctx context.Context, req *requestState, def *Definition, value any, path []string, unique bool) error {
	list, ok := value.([]any)
	if !ok {
		return dicterr.New(dicterr.KindMismatch, fmt.Sprintf("%s: expected a sequence", pathStr(path)))
	}
	if def.MinElements != nil && len(list) < *def.MinElements {
		return dicterr.New(dicterr.RangeViolation, fmt.Sprintf("%s: fewer than the declared %d minimum elements", pathStr(path), *def.MinElements))
	}
	if def.MaxElements != nil && len(list) > *def.MaxElements {
		return dicterr.New(dicterr.RangeViolation, fmt.Sprintf("%s: more than the declared %d maximum elements", pathStr(path), *def.MaxElements))
	}

	var seen []any
	for i, item := range list {
		itemPath := append(append([]string{}, path...), fmt.Sprintf("[%d]", i))
		if err := v.validateValue(ctx, req, def.Element, item, itemPath); err != nil {
			return err
		}
		if unique {
			for _, s := range seen {
				if datamerge.Equal(s, item) {
					return dicterr.New(dicterr.DuplicateKey, fmt.Sprintf("%s: duplicate element in a _set", pathStr(itemPath)))
				}
			}
			seen = append(seen, item)
		}
	}
	return nil
}

func (v *Validator) validateDict(ctx context.Context, req *requestState, def *Definition, value any, path []string) error {
	m, ok := value.(map[string]any)
	if !ok {
		return dicterr.New(dicterr.KindMismatch, fmt.Sprintf("%s: expected a mapping", pathStr(path)))
	}

	for _, k := range sortedKeys(m) {
		entryVal := m[k]
		keyPath := append(append([]string{}, path...), k+".key")
		if err := v.validateValue(ctx, req, def.Key, k, keyPath); err != nil {
			return err
		}
		valPath := append(append([]string{}, path...), k)
		if err := v.validateValue(ctx, req, def.Value, entryVal, valPath); err != nil {
			return err
		}
	}
	return nil
}

// validateObjectValue implements §4.5.2 step 6: resolve the value's
// object type (its own _type field, falling back to the definition's
// _type_ref), evaluate the type's _rule against the property _gids
// present, and recurse into each property's own descriptor definition.
func (v *Validator) validateObjectValue(ctx context.Context, req *requestState, def *Definition, value any, path []string) error {
	m, ok := value.(map[string]any)
	if !ok {
		return dicterr.New(dicterr.KindMismatch, fmt.Sprintf("%s: expected an object", pathStr(path)))
	}

	typeGID, _ := m["_type"].(string)
	if typeGID == "" {
		typeGID = def.TypeRef
	}
	if typeGID == "" {
		return dicterr.New(dicterr.DefinitionError, fmt.Sprintf("%s: object definition has no _type_ref and the value carries no _type", pathStr(path)))
	}

	typeDoc, found, err := v.resolveTypeDoc(req, typeGID)
	if err != nil {
		return err
	}
	if !found {
		return dicterr.New(dicterr.InvalidReference, fmt.Sprintf("%s: object type %q not found", pathStr(path), typeGID))
	}

	ruleRaw, _ := typeDoc[term.SectionRule].(map[string]any)
	rule := objectrule.Parse(ruleRaw)

	present := make(map[string]bool, len(m))
	for k := range m {
		if k == "_type" {
			continue
		}
		present[k] = true
	}

	if violations := objectrule.Evaluate(rule, present, present); len(violations) > 0 {
		first := violations[0]
		return dicterr.New(dicterr.ObjectRuleViolation, fmt.Sprintf("%s: %s", pathStr(path), first.Message))
	}

	if !req.opts.ExpectTerms {
		return nil
	}

	for _, propGID := range sortedKeys(present) {
		propDoc, found, err := v.resolveTypeDoc(req, propGID)
		if err != nil {
			return err
		}
		if !found {
			return dicterr.New(dicterr.UnknownProperty, fmt.Sprintf("%s.%s: does not resolve to a known term", pathStr(path), propGID))
		}
		if !term.IsDescriptor(propDoc) {
			return dicterr.New(dicterr.NotDescriptor, fmt.Sprintf("%s.%s: is not a descriptor", pathStr(path), propGID))
		}
		propRaw, _ := propDoc[term.SectionData].(map[string]any)
		propDef, err := ParseDefinition(propRaw, req.opts.ExpectTypes)
		if err != nil {
			return err
		}
		propPath := append(append([]string{}, path...), propGID)
		if err := v.validateValue(ctx, req, propDef, m[propGID], propPath); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) resolveTypeDoc(req *requestState, gid string) (store.Document, bool, error) {
	cacheKey := "gid:" + gid
	if req.opts.UseCache {
		if doc, found, known := req.cache.Get(cacheKey); known {
			return doc, found, nil
		}
	}
	doc, matches, err := v.resolver.ResolveTerm(gid, term.FieldGID, "")
	if err != nil {
		return nil, false, err
	}
	found := matches == 1
	if req.opts.UseCache && (found || req.opts.CacheMissed) {
		if found {
			req.cache.Remember(cacheKey, doc, true)
		} else {
			req.cache.Remember(cacheKey, nil, false)
		}
	}
	return doc, found, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
