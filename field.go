package arbor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MappingType is the integer width used for object handles in a scene.
type MappingType uint8

const (
	MappingUint8  MappingType = iota + 1 // handles fit in 8 bits
	MappingUint16                        // handles fit in 16 bits
	MappingUint32                        // handles fit in 32 bits
	MappingUint64                        // handles fit in 64 bits
)

// Size returns the handle width in bytes.
func (t MappingType) Size() int {
	switch t {
	case MappingUint8:
		return 1
	case MappingUint16:
		return 2
	case MappingUint32:
		return 4
	case MappingUint64:
		return 8
	}
	return 0
}

func (t MappingType) String() string {
	switch t {
	case MappingUint8:
		return "Uint8"
	case MappingUint16:
		return "Uint16"
	case MappingUint32:
		return "Uint32"
	case MappingUint64:
		return "Uint64"
	}
	return fmt.Sprintf("MappingType(%d)", uint8(t))
}

// Handle is the set of integer types usable as object handles.
type Handle interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FieldName identifies a scene field. Well-known names are predefined;
// application-specific fields use FieldCustom.
type FieldName uint32

const (
	FieldParent         FieldName = iota + 1 // parent handle, negative for roots
	FieldTransformation                      // local Mat3 (2D) or Mat4 (3D)
	FieldTranslation                         // local Vec2 (2D) or Vec3 (3D)
	FieldRotation                            // local angle in radians (2D) or Quat (3D)
	FieldScaling                             // local Vec2 (2D) or Vec3 (3D)
	FieldMesh                                // mesh id
	FieldMeshMaterial                        // material id
	FieldLight                               // light id
	FieldCamera                              // camera id
	FieldSkin                                // skin id
)

const fieldCustomBase FieldName = 1 << 31

// FieldCustom returns the name of the n-th application-defined field.
func FieldCustom(n uint32) FieldName {
	return fieldCustomBase | FieldName(n&^uint32(fieldCustomBase))
}

// IsCustom reports whether the name was created with FieldCustom.
func (n FieldName) IsCustom() bool {
	return n&fieldCustomBase != 0
}

func (n FieldName) String() string {
	switch n {
	case FieldParent:
		return "Parent"
	case FieldTransformation:
		return "Transformation"
	case FieldTranslation:
		return "Translation"
	case FieldRotation:
		return "Rotation"
	case FieldScaling:
		return "Scaling"
	case FieldMesh:
		return "Mesh"
	case FieldMeshMaterial:
		return "MeshMaterial"
	case FieldLight:
		return "Light"
	case FieldCamera:
		return "Camera"
	case FieldSkin:
		return "Skin"
	}
	if n.IsCustom() {
		return fmt.Sprintf("Custom(%d)", uint32(n&^fieldCustomBase))
	}
	return fmt.Sprintf("FieldName(%d)", uint32(n))
}

// FieldType describes the element type of a field's values.
type FieldType uint8

const (
	FieldTypeNone FieldType = iota // mapping-only field
	FieldTypeInt8
	FieldTypeInt16
	FieldTypeInt32
	FieldTypeInt64
	FieldTypeUint8
	FieldTypeUint16
	FieldTypeUint32
	FieldTypeUint64
	FieldTypeFloat32
	FieldTypeVec2
	FieldTypeVec3
	FieldTypeQuat
	FieldTypeMat3
	FieldTypeMat4
	FieldTypeCustom
)

var fieldTypeNames = [...]string{
	FieldTypeNone:    "None",
	FieldTypeInt8:    "Int8",
	FieldTypeInt16:   "Int16",
	FieldTypeInt32:   "Int32",
	FieldTypeInt64:   "Int64",
	FieldTypeUint8:   "Uint8",
	FieldTypeUint16:  "Uint16",
	FieldTypeUint32:  "Uint32",
	FieldTypeUint64:  "Uint64",
	FieldTypeFloat32: "Float32",
	FieldTypeVec2:    "Vec2",
	FieldTypeVec3:    "Vec3",
	FieldTypeQuat:    "Quat",
	FieldTypeMat3:    "Mat3",
	FieldTypeMat4:    "Mat4",
	FieldTypeCustom:  "Custom",
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// Field is one column of a scene: a list of object handles and, optionally,
// one value per handle. Build fields with NewField or NewMappingField and
// hand them to NewScene.
type Field struct {
	name        FieldName
	mappingType MappingType
	fieldType   FieldType
	mapping     []uint64
	values      any // typed slice, nil for mapping-only fields
	valueCount  int
}

// NewField creates a field that attaches values[i] to object mapping[i].
// The handle type H determines the field's MappingType.
func NewField[H Handle, T any](name FieldName, mapping []H, values []T) Field {
	f := newMappingField(name, mapping)
	f.fieldType = fieldTypeOf(values)
	f.values = values
	f.valueCount = len(values)
	return f
}

// NewMappingField creates a field without values, e.g. to mark objects as
// belonging to some category.
func NewMappingField[H Handle](name FieldName, mapping []H) Field {
	return newMappingField(name, mapping)
}

func newMappingField[H Handle](name FieldName, mapping []H) Field {
	f := Field{
		name:        name,
		mappingType: mappingTypeOf[H](),
		mapping:     make([]uint64, len(mapping)),
		valueCount:  -1,
	}
	for i, h := range mapping {
		f.mapping[i] = uint64(h)
	}
	return f
}

// Name returns the field name.
func (f Field) Name() FieldName { return f.name }

// Size returns the number of entries.
func (f Field) Size() int { return len(f.mapping) }

func mappingTypeOf[H Handle]() MappingType {
	switch uint64(^H(0)) {
	case math.MaxUint8:
		return MappingUint8
	case math.MaxUint16:
		return MappingUint16
	case math.MaxUint32:
		return MappingUint32
	}
	return MappingUint64
}

func fieldTypeOf(values any) FieldType {
	switch values.(type) {
	case []int8:
		return FieldTypeInt8
	case []int16:
		return FieldTypeInt16
	case []int32:
		return FieldTypeInt32
	case []int64:
		return FieldTypeInt64
	case []uint8:
		return FieldTypeUint8
	case []uint16:
		return FieldTypeUint16
	case []uint32:
		return FieldTypeUint32
	case []uint64:
		return FieldTypeUint64
	case []float32:
		return FieldTypeFloat32
	case []mgl32.Vec2:
		return FieldTypeVec2
	case []mgl32.Vec3:
		return FieldTypeVec3
	case []mgl32.Quat:
		return FieldTypeQuat
	case []mgl32.Mat3:
		return FieldTypeMat3
	case []mgl32.Mat4:
		return FieldTypeMat4
	}
	return FieldTypeCustom
}

// signedValues converts an integer field's values to int64, used for the
// parent relation which may be stored in any signed width.
func signedValues(values any) ([]int64, bool) {
	switch v := values.(type) {
	case []int8:
		return widen(v), true
	case []int16:
		return widen(v), true
	case []int32:
		return widen(v), true
	case []int64:
		return v, true
	}
	return nil, false
}

func widen[T ~int8 | ~int16 | ~int32](v []T) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}
