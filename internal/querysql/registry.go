package querysql

import (
	"strings"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
)

// OperatorBuilder compiles one normalized condition whose value lives at src.
// Builders are dialect-agnostic; all syntax comes from b.d.
type OperatorBuilder func(b *builder, src Source, c queryir.Condition) (Fragment, error)

// registry is the closed operator catalog.
var registry map[queryir.OperatorTag]OperatorBuilder

func init() {
	registry = map[queryir.OperatorTag]OperatorBuilder{
		queryir.OpEq:        buildEq,
		queryir.OpNe:        buildNe,
		queryir.OpGt:        buildCompare(">"),
		queryir.OpGte:       buildCompare(">="),
		queryir.OpLt:        buildCompare("<"),
		queryir.OpLte:       buildCompare("<="),
		queryir.OpIn:        buildIn,
		queryir.OpNin:       buildNin,
		queryir.OpAll:       buildAll,
		queryir.OpElemMatch: buildElemMatch,
		queryir.OpExists:    buildExists,
		queryir.OpSize:      buildSize,
		queryir.OpContains:  buildContains,
		queryir.OpRegex:     buildRegex,
	}
}

// Lookup returns the builder for tag, or UNSUPPORTED_OPERATOR.
func Lookup(tag queryir.OperatorTag) (OperatorBuilder, error) {
	if fn, ok := registry[tag]; ok {
		return fn, nil
	}
	return nil, queryir.NewUnsupportedOperator("", string(tag), "unknown operator")
}

// text is the text extraction at src.
func (b *builder) text(src Source) Fragment {
	return b.d.JSONPath(src, PathOptions{})
}

// isArray tests whether the value at src is a JSON array.
func (b *builder) isArray(src Source) Fragment {
	return b.d.JSONPath(src, PathOptions{AsArrayCheck: true})
}

// textParam builds the parameter compared with a text extraction.
func (b *builder) textParam(src Source, op queryir.OperatorTag, v ir.IRValue) (Param, error) {
	p, err := b.d.TextParam(v)
	if err != nil {
		return Param{}, queryir.NewTypeMismatch(src.Path.String(), string(op), "%v", err)
	}
	return p, nil
}

// anyElement is EXISTS over the elements of the array at src, with pred
// building the per-element predicate.
func (b *builder) anyElement(src Source, pred func(elem Source) (Fragment, error)) (Fragment, error) {
	alias := b.nextAlias()
	where, err := pred(src.Element(alias))
	if err != nil {
		return nil, err
	}
	return frag("EXISTS (SELECT 1 FROM ", b.d.Elements(src, alias), " WHERE ", where, ")"), nil
}

// equalsText is text(src) = v, with null meaning IS NULL.
func (b *builder) equalsText(src Source, op queryir.OperatorTag, v ir.IRValue) (Fragment, error) {
	if ir.IsNull(v) {
		return frag(b.text(src), " IS NULL"), nil
	}
	p, err := b.textParam(src, op, v)
	if err != nil {
		return nil, err
	}
	return frag(b.text(src), " = ", p), nil
}

// memberOf is text(src) IN (list), with null entries matching IS NULL.
func (b *builder) memberOf(src Source, op queryir.OperatorTag, list ir.IRArray) (Fragment, error) {
	var params []Fragment
	hasNull := false
	for _, v := range list {
		if ir.IsNull(v) {
			hasNull = true
			continue
		}
		p, err := b.textParam(src, op, v)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	var parts []Fragment
	if len(params) > 0 {
		parts = append(parts, frag(b.text(src), " IN (", join(", ", params), ")"))
	}
	if hasNull {
		parts = append(parts, frag(b.text(src), " IS NULL"))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return paren(join(" OR ", parts)), nil
}

// canonicalParam encodes an array or object operand as canonical JSON text.
func canonicalParam(src Source, op queryir.OperatorTag, v ir.IRValue) (Param, error) {
	doc, err := ir.MarshalCanonical(v)
	if err != nil {
		return Param{}, queryir.NewTypeMismatch(src.Path.String(), string(op), "%v", err)
	}
	return Param{Value: string(doc)}, nil
}

// buildEq: equality on the extracted value compared as text. Arrays compare
// as whole JSON documents.
func buildEq(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	if arr, ok := c.Operand.(ir.IRArray); ok {
		p, err := canonicalParam(src, c.Op, arr)
		if err != nil {
			return nil, err
		}
		return b.d.JSONEquals(src, p), nil
	}
	return b.equalsText(src, c.Op, c.Operand)
}

// buildNe: inverse of $eq. A missing field is "not equal".
func buildNe(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	switch v := c.Operand.(type) {
	case nil, ir.IRNull:
		return frag(b.text(src), " IS NOT NULL"), nil
	case ir.IRArray:
		p, err := canonicalParam(src, c.Op, v)
		if err != nil {
			return nil, err
		}
		return frag("NOT COALESCE(", b.d.JSONEquals(src, p), ", ", b.d.Bool(false), ")"), nil
	default:
		p, err := b.textParam(src, c.Op, v)
		if err != nil {
			return nil, err
		}
		t := b.text(src)
		return frag("(", t, " IS NULL OR ", t, " <> ", p, ")"), nil
	}
}

// buildCompare: numeric comparison. Non-numeric targets extract as NULL and
// so compare false.
func buildCompare(sqlOp string) OperatorBuilder {
	return func(b *builder, src Source, c queryir.Condition) (Fragment, error) {
		v, err := ir.ToParam(c.Operand)
		if err != nil {
			return nil, queryir.NewTypeMismatch(src.Path.String(), string(c.Op), "%v", err)
		}
		n := b.d.JSONPath(src, PathOptions{AsNumeric: true})
		return frag(n, " "+sqlOp+" ", Param{Value: v}), nil
	}
}

// buildIn: array targets match when any element is in the list; other
// targets match when the value itself is in the list.
func buildIn(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	list, _ := c.Operand.(ir.IRArray)
	if len(list) == 0 {
		return b.d.Bool(false), nil
	}

	isArray := b.isArray(src)
	exists, err := b.anyElement(src, func(elem Source) (Fragment, error) {
		return b.memberOf(elem, c.Op, list)
	})
	if err != nil {
		return nil, err
	}
	scalar, err := b.memberOf(src, c.Op, list)
	if err != nil {
		return nil, err
	}

	return frag(
		"((", isArray, " AND ", exists, ")",
		" OR ((", isArray, ") IS NOT TRUE AND ", scalar, "))",
	), nil
}

// buildNin: negation of $in. Missing fields match; an empty list matches everything.
func buildNin(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	list, _ := c.Operand.(ir.IRArray)
	if len(list) == 0 {
		return b.d.Bool(true), nil
	}
	in, err := buildIn(b, src, c)
	if err != nil {
		return nil, err
	}
	return frag("NOT COALESCE(", in, ", ", b.d.Bool(false), ")"), nil
}

// buildAll: every operand value appears in the target array. Non-arrays never
// match; an empty operand matches everything.
func buildAll(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	list, _ := c.Operand.(ir.IRArray)
	if len(list) == 0 {
		return b.d.Bool(true), nil
	}

	parts := []Fragment{b.isArray(src)}
	for _, v := range list {
		exists, err := b.anyElement(src, func(elem Source) (Fragment, error) {
			return b.equalsText(elem, c.Op, v)
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, exists)
	}
	return paren(join(" AND ", parts)), nil
}

// buildElemMatch: some single element satisfies the whole sub-filter.
func buildElemMatch(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	exists, err := b.anyElement(src, func(elem Source) (Fragment, error) {
		if c.Elem == nil {
			return b.d.Bool(true), nil
		}
		return b.node(c.Elem, elem)
	})
	if err != nil {
		return nil, err
	}
	return frag("(", b.isArray(src), " AND ", exists, ")"), nil
}

// buildExists: key presence, explicit null included.
func buildExists(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	if want, _ := c.Operand.(ir.IRBool); want {
		return b.d.Exists(src), nil
	}
	return frag("NOT (", b.d.Exists(src), ")"), nil
}

// buildSize: array length equality. Non-arrays never match.
func buildSize(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	n, ok := c.Operand.(ir.IRInt)
	if !ok {
		return nil, queryir.NewTypeMismatch(src.Path.String(), string(c.Op), "$size expects an integer")
	}
	return frag("(", b.isArray(src), " AND ", b.d.ArrayLength(src), " = ", Param{Value: int64(n)}, ")"), nil
}

// buildContains: substring for strings, subset for arrays, equality otherwise.
func buildContains(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	switch v := c.Operand.(type) {
	case ir.IRString:
		pattern := Param{Value: "%" + escapeLike(string(v)) + "%"}
		return b.d.Like(b.text(src), pattern), nil
	case ir.IRArray:
		return buildAll(b, src, c)
	default:
		return b.equalsText(src, c.Op, v)
	}
}

// buildRegex: dialect-native pattern match; flags are not interpreted.
func buildRegex(b *builder, src Source, c queryir.Condition) (Fragment, error) {
	s, ok := c.Operand.(ir.IRString)
	if !ok {
		return nil, queryir.NewTypeMismatch(src.Path.String(), string(c.Op), "$regex expects a string")
	}
	return b.d.Regex(b.text(src), Param{Value: string(s)}), nil
}

// likeEscaper escapes LIKE wildcards and the escape character itself.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes s for use inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
