package ffi

import (
	"github.com/tsn-lang/tsn/internal/types"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// RegisterStdString binds the locale-aware string comparison and Unicode
// normalization host functions scripts reach through the "std.string"
// namespace (locale-aware collation, NFC/NFD/NFKC/NFKD normalization),
// expressed here as ordinary FFI descriptors instead of VM opcodes.
func RegisterStdString(reg *Registry, tr *types.Registry) error {
	str := tr.GetPrimitive(types.String)
	i32 := tr.GetPrimitive(types.I32)
	b := tr.GetPrimitive(types.Bool)

	compare := &Descriptor{
		Name:     "std.string.compareLocale",
		Return:   i32,
		RetKind:  ArgValue,
		Args:     []*types.Type{str, str, str, b},
		ArgKinds: []ArgKind{ArgValue, ArgValue, ArgValue, ArgValue},
		Native:   compareLocale,
	}
	if err := reg.Register(compare); err != nil {
		return err
	}

	normalize := &Descriptor{
		Name:     "std.string.normalize",
		Return:   str,
		RetKind:  ArgValue,
		Args:     []*types.Type{str, str},
		ArgKinds: []ArgKind{ArgValue, ArgValue},
		Native:   normalizeForm,
	}
	return reg.Register(normalize)
}

// compareLocale orders a and b under locale's collation rules, optionally
// folding case first. A malformed locale tag falls back to English.
func compareLocale(a, b, locale string, ignoreCase bool) int32 {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	var col *collate.Collator
	if ignoreCase {
		col = collate.New(tag, collate.IgnoreCase)
	} else {
		col = collate.New(tag)
	}
	return int32(col.CompareString(a, b))
}

// normalizeForm applies one of the four standard Unicode normalization
// forms to s; an unrecognized form name falls back to NFC.
func normalizeForm(s, form string) string {
	switch form {
	case "NFD":
		return norm.NFD.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	default:
		return norm.NFC.String(s)
	}
}
