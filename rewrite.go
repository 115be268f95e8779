package kamusi

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kamusihq/kamusi/lang"
)

// physicalFor maps a logical attribute reference (struct field name or
// original column name) to the physical column for one language. Explicit
// physical names such as "title_sw" are not logical references and do not
// match; they pass through untouched wherever they appear.
func (o *TranslationOptions) physicalFor(name string, code lang.Code) (string, bool) {
	perLang, ok := o.shadows[name]
	if !ok {
		for _, candidates := range o.shadows {
			if sourceDBName(candidates) == name {
				perLang, ok = candidates, true
				break
			}
		}
	}
	if !ok {
		return "", false
	}
	sf := perLang[code]
	if sf == nil {
		return "", false
	}
	return sf.DBName, true
}

// sourceDBName returns the original column a shadow set was cloned from;
// every shadow of one attribute shares the same source.
func sourceDBName(perLang map[lang.Code]*ShadowField) string {
	for _, sf := range perLang {
		return sf.source.DBName
	}
	return ""
}

// rewriter rewrites column references inside one statement for one resolved
// language. A nil rewriter (default language active) leaves everything
// alone: the default language lives in the original columns.
type rewriter struct {
	options *TranslationOptions
	code    lang.Code
}

func (t *Translator) rewriterFor(ctx context.Context, options *TranslationOptions) *rewriter {
	active := t.Active(ctx)
	if active == t.cfg.Default {
		return nil
	}
	return &rewriter{options: options, code: active}
}

// column rewrites a bare column reference, keeping any table qualifier.
func (r *rewriter) column(name string) string {
	table, bare := "", name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		table, bare = name[:idx+1], name[idx+1:]
	}
	if physical, ok := r.options.physicalFor(bare, r.code); ok {
		return table + physical
	}
	return name
}

// columnRef rewrites the Column field of a comparison clause, which gorm
// populates as either a string or a clause.Column.
func (r *rewriter) columnRef(col any) any {
	switch c := col.(type) {
	case string:
		return r.column(c)
	case clause.Column:
		if c.Raw {
			c.Name = r.orderTerm(c.Name)
		} else {
			c.Name = r.column(c.Name)
		}
		return c
	}
	return col
}

// expression rewrites one WHERE expression, recursing through the
// and/or/not condition tree. Raw SQL (clause.Expr) is deliberately left
// untouched: an expression the caller wrote by hand is taken literally.
func (r *rewriter) expression(expr clause.Expression) clause.Expression {
	switch e := expr.(type) {
	case clause.AndConditions:
		e.Exprs = r.expressions(e.Exprs)
		return e
	case clause.OrConditions:
		e.Exprs = r.expressions(e.Exprs)
		return e
	case clause.NotConditions:
		e.Exprs = r.expressions(e.Exprs)
		return e
	case clause.Eq:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Neq:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Gt:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Gte:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Lt:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Lte:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.Like:
		e.Column = r.columnRef(e.Column)
		return e
	case clause.IN:
		e.Column = r.columnRef(e.Column)
		return e
	}
	return expr
}

func (r *rewriter) expressions(exprs []clause.Expression) []clause.Expression {
	out := make([]clause.Expression, len(exprs))
	for i, expr := range exprs {
		out[i] = r.expression(expr)
	}
	return out
}

// orderTerm rewrites a raw ORDER BY term list, e.g. "title desc, id".
func (r *rewriter) orderTerm(raw string) string {
	terms := strings.Split(raw, ",")
	for i, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 {
			continue
		}
		switch len(fields) {
		case 1:
			fields[0] = r.column(fields[0])
		case 2:
			if dir := strings.ToLower(fields[1]); dir == "asc" || dir == "desc" {
				fields[0] = r.column(fields[0])
			}
		}
		terms[i] = strings.Join(fields, " ")
	}
	return strings.Join(terms, ", ")
}

// statement rewrites the WHERE and ORDER BY clauses of a statement in
// place, before gorm builds SQL from them.
func (r *rewriter) statement(stmt *gorm.Statement) {
	if where, ok := stmt.Clauses["WHERE"]; ok {
		if cond, ok := where.Expression.(clause.Where); ok {
			cond.Exprs = r.expressions(cond.Exprs)
			where.Expression = cond
			stmt.Clauses["WHERE"] = where
		}
	}

	if orderBy, ok := stmt.Clauses["ORDER BY"]; ok {
		if order, ok := orderBy.Expression.(clause.OrderBy); ok {
			for i, col := range order.Columns {
				if col.Column.Raw {
					order.Columns[i].Column.Name = r.orderTerm(col.Column.Name)
				} else {
					order.Columns[i].Column.Name = r.column(col.Column.Name)
				}
			}
			orderBy.Expression = order
			stmt.Clauses["ORDER BY"] = orderBy
		}
	}
}

// updateDest rewrites the assignment keys of a map-form Update/Updates
// destination. An assignment whose value is a raw expression keeps its key
// un-rewritten: "title = title + 1" written by hand targets exactly the
// column it names, while a plain value assignment targets the active
// language's slot. The two sides of one UPDATE may therefore address
// different columns, which is the intended reading of each form.
func (r *rewriter) updateDest(stmt *gorm.Statement) {
	dest, ok := stmt.Dest.(map[string]interface{})
	if !ok {
		return
	}

	out := make(map[string]interface{}, len(dest))
	for key, value := range dest {
		if _, raw := value.(clause.Expr); raw {
			out[key] = value
			continue
		}
		out[r.column(key)] = value
	}
	stmt.Dest = out
}

// lookup suffixes, Django-flavored
const (
	lookupExact      = "exact"
	lookupContains   = "contains"
	lookupStartsWith = "startswith"
	lookupEndsWith   = "endswith"
	lookupGt         = "gt"
	lookupGte        = "gte"
	lookupLt         = "lt"
	lookupLte        = "lte"
	lookupIn         = "in"
)

// Lookup resolves one "field__suffix" key against the language carried by
// ctx and returns the matching clause expression. A key without a suffix is
// an exact match. The field part follows the same resolution as query
// rewriting: logical attributes move to the active language's column,
// explicit physical names and untranslated fields stay as written.
func (t *Translator) Lookup(ctx context.Context, model any, key string, value any) (clause.Expression, error) {
	options, err := t.OptionsFor(model)
	if err != nil {
		return nil, err
	}

	field, suffix := key, lookupExact
	if idx := strings.LastIndex(key, "__"); idx > 0 {
		field, suffix = key[:idx], key[idx+2:]
	}

	column := t.resolveColumn(ctx, options, field)

	switch suffix {
	case lookupExact:
		return clause.Eq{Column: column, Value: value}, nil
	case lookupGt:
		return clause.Gt{Column: column, Value: value}, nil
	case lookupGte:
		return clause.Gte{Column: column, Value: value}, nil
	case lookupLt:
		return clause.Lt{Column: column, Value: value}, nil
	case lookupLte:
		return clause.Lte{Column: column, Value: value}, nil
	case lookupContains:
		return likeExpr(column, "%"+escapeLike(value)+"%"), nil
	case lookupStartsWith:
		return likeExpr(column, escapeLike(value)+"%"), nil
	case lookupEndsWith:
		return likeExpr(column, "%"+escapeLike(value)), nil
	case lookupIn:
		return clause.IN{Column: column, Values: toValueSlice(value)}, nil
	}
	return nil, fmt.Errorf("%q: %w", key, ErrUnknownLookup)
}

// Filter resolves a set of lookup keys into clause expressions, ordered by
// key for deterministic SQL.
func (t *Translator) Filter(ctx context.Context, model any, lookups map[string]any) ([]clause.Expression, error) {
	keys := make([]string, 0, len(lookups))
	for key := range lookups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		expr, err := t.Lookup(ctx, model, key, lookups[key])
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func (t *Translator) resolveColumn(ctx context.Context, options *TranslationOptions, field string) string {
	active := t.Active(ctx)
	if active != t.cfg.Default {
		if physical, ok := options.physicalFor(field, active); ok {
			return physical
		}
	}
	if f := options.schema.LookUpField(field); f != nil {
		return f.DBName
	}
	return field
}

// likeExpr builds a LIKE with an explicit escape character. clause.Like
// emits no ESCAPE clause and dialects disagree on a default (sqlite has
// none), so the backslashes escapeLike produces must be declared.
func likeExpr(column, pattern string) clause.Expression {
	return clause.Expr{SQL: `? LIKE ? ESCAPE '\'`, Vars: []interface{}{clause.Column{Name: column}, pattern}}
}

func escapeLike(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func toValueSlice(value any) []interface{} {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{value}
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
