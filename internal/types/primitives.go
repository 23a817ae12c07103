package types

// PrimitiveKind enumerates the built-in primitives created at Context
// startup: bool, i8..i64, u8..u64, f32, f64, plus void, the opaque data
// pointer, and string.
type PrimitiveKind int

const (
	Bool PrimitiveKind = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Void
	Data
	String
)

var primitiveSpecs = map[PrimitiveKind]struct {
	name       string
	size       int
	integral   bool
	unsigned   bool
	floating   bool
}{
	Bool:   {"bool", 1, true, false, false},
	I8:     {"i8", 1, true, false, false},
	I16:    {"i16", 2, true, false, false},
	I32:    {"i32", 4, true, false, false},
	I64:    {"i64", 8, true, false, false},
	U8:     {"u8", 1, true, true, false},
	U16:    {"u16", 2, true, true, false},
	U32:    {"u32", 4, true, true, false},
	U64:    {"u64", 8, true, true, false},
	F32:    {"f32", 4, false, false, true},
	F64:    {"f64", 8, false, false, true},
	Void:   {"void", 0, false, false, false},
	Data:   {"data", 8, false, false, false},
	String: {"string", 16, false, false, false}, // {ptr, len} handle
}

func (r *Registry) registerPrimitives() {
	// Iterate in a fixed order so IDs are deterministic across runs.
	order := []PrimitiveKind{Bool, I8, I16, I32, I64, U8, U16, U32, U64, F32, F64, Void, Data, String}
	for _, kind := range order {
		spec := primitiveSpecs[kind]
		t, _ := r.Intern(Descriptor{
			SimpleName: spec.name,
			FQName:     spec.name,
			Size:       spec.size,
			Access:     AccessPublic,
			Flags: Flags{
				IsPOD:                    true,
				IsTriviallyConstructible: true,
				IsTriviallyCopyable:      true,
				IsTriviallyDestructible:  true,
				IsPrimitive:              kind != Void && kind != Data && kind != String,
				IsIntegral:               spec.integral,
				IsUnsigned:               spec.unsigned,
				IsFloatingPoint:          spec.floating,
			},
		})
		r.primitives[kind] = t
	}
}

// GetPrimitive returns the Type for one of the built-in primitives. It
// always succeeds: primitives are created once, at Registry construction.
func (r *Registry) GetPrimitive(kind PrimitiveKind) *Type {
	return r.primitives[kind]
}

// IsNumeric reports whether t is one of the integral or floating-point
// primitives, used by the compiler to pick an arithmetic opcode and by
// convert's numeric-to-numeric conversion table.
func IsNumeric(t *Type) bool {
	return t != nil && (t.Flags.IsIntegral || t.Flags.IsFloatingPoint)
}
