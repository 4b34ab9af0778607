package arbor

import "fmt"

// SceneConfig holds optional parameters for NewScene.
type SceneConfig struct {
	// MappingType is the handle width every field must use. Zero takes the
	// width of the first field, or MappingUint32 for a scene without fields.
	MappingType MappingType
	// MappingBound is one past the largest allowed object handle. Zero
	// derives it from the largest handle present in any field.
	MappingBound uint64
	// Dimensions declares the scene as 2D or 3D. Zero derives it from the
	// transformation field types; a declared value that contradicts them is
	// an error.
	Dimensions int
}

// Scene is a table of named fields over a set of object handles. Its layout
// (fields, handles, types) is fixed at construction. Field values are not
// copied: they change when a TweenGroup updates them or when the caller
// writes to the slice passed to NewField. A Scene is safe for concurrent
// readers as long as no such writes happen at the same time.
type Scene struct {
	mappingType  MappingType
	mappingBound uint64
	dimensions   int
	fields       []Field
}

// NewScene validates the fields and assembles them into a scene. Field IDs
// are the positions of the fields in the argument list.
func NewScene(cfg SceneConfig, fields ...Field) (*Scene, error) {
	s := &Scene{
		mappingType:  cfg.MappingType,
		mappingBound: cfg.MappingBound,
		fields:       append([]Field(nil), fields...),
	}
	if s.mappingType == 0 {
		s.mappingType = MappingUint32
		if len(s.fields) > 0 {
			s.mappingType = s.fields[0].mappingType
		}
	}

	var maxHandle uint64
	var anyHandle bool
	seen := make(map[FieldName]int, len(s.fields))
	for id, f := range s.fields {
		if f.name == 0 {
			return nil, fmt.Errorf("arbor: NewScene: field %d has no name: %w", id, ErrInvalidScene)
		}
		if prev, ok := seen[f.name]; ok {
			return nil, fmt.Errorf("arbor: NewScene: duplicate field %v at %d and %d: %w", f.name, prev, id, ErrInvalidScene)
		}
		seen[f.name] = id
		if f.mappingType != s.mappingType {
			return nil, fmt.Errorf("arbor: NewScene: field %v has mapping type %v, scene uses %v: %w",
				f.name, f.mappingType, s.mappingType, ErrInvalidScene)
		}
		if f.valueCount >= 0 && f.valueCount != len(f.mapping) {
			return nil, fmt.Errorf("arbor: NewScene: field %v has %d entries but %d values: %w",
				f.name, len(f.mapping), f.valueCount, ErrInvalidScene)
		}
		for _, h := range f.mapping {
			if !anyHandle || h > maxHandle {
				maxHandle = h
				anyHandle = true
			}
		}
	}

	if s.mappingBound == 0 && anyHandle {
		s.mappingBound = maxHandle + 1
	}
	if anyHandle && maxHandle >= s.mappingBound {
		return nil, fmt.Errorf("arbor: NewScene: object %d out of range for %d objects: %w",
			maxHandle, s.mappingBound, ErrInvalidScene)
	}
	if width := s.mappingType.Size() * 8; width < 64 && s.mappingBound > 1<<width {
		return nil, fmt.Errorf("arbor: NewScene: mapping bound %d does not fit %v: %w",
			s.mappingBound, s.mappingType, ErrInvalidScene)
	}

	dims, err := s.deriveDimensions(cfg.Dimensions)
	if err != nil {
		return nil, err
	}
	s.dimensions = dims
	return s, nil
}

func (s *Scene) deriveDimensions(declared int) (int, error) {
	if declared != 0 && declared != 2 && declared != 3 {
		return 0, fmt.Errorf("arbor: NewScene: dimensions must be 2 or 3, got %d: %w", declared, ErrInvalidScene)
	}
	dims := 0
	for _, f := range s.fields {
		var d int
		switch f.name {
		case FieldTransformation:
			switch f.fieldType {
			case FieldTypeMat3:
				d = 2
			case FieldTypeMat4:
				d = 3
			}
		case FieldTranslation, FieldScaling:
			switch f.fieldType {
			case FieldTypeVec2:
				d = 2
			case FieldTypeVec3:
				d = 3
			}
		case FieldRotation:
			switch f.fieldType {
			case FieldTypeFloat32:
				d = 2
			case FieldTypeQuat:
				d = 3
			}
		default:
			continue
		}
		if d == 0 {
			return 0, fmt.Errorf("arbor: NewScene: field %v cannot hold %v values: %w", f.name, f.fieldType, ErrInvalidScene)
		}
		if dims != 0 && d != dims {
			return 0, fmt.Errorf("arbor: NewScene: field %v is %dD but the scene is %dD: %w", f.name, d, dims, ErrInvalidScene)
		}
		dims = d
	}
	if declared != 0 && dims != 0 && declared != dims {
		return 0, fmt.Errorf("arbor: NewScene: declared %dD but fields are %dD: %w", declared, dims, ErrInvalidScene)
	}
	if dims == 0 {
		dims = declared
	}
	return dims, nil
}

// MappingType returns the handle width of the scene.
func (s *Scene) MappingType() MappingType { return s.mappingType }

// MappingBound returns one past the largest allowed object handle.
func (s *Scene) MappingBound() uint64 { return s.mappingBound }

// Is2D reports whether the scene holds 2D transformations.
func (s *Scene) Is2D() bool { return s.dimensions == 2 }

// Is3D reports whether the scene holds 3D transformations.
func (s *Scene) Is3D() bool { return s.dimensions == 3 }

// FieldCount returns the number of fields.
func (s *Scene) FieldCount() int { return len(s.fields) }

// FindField returns the ID of the field with the given name.
func (s *Scene) FindField(name FieldName) (int, bool) {
	for id := range s.fields {
		if s.fields[id].name == name {
			return id, true
		}
	}
	return -1, false
}

// FieldName returns the name of field id, or zero when id is out of range.
func (s *Scene) FieldName(id int) FieldName {
	if !s.validField(id) {
		return 0
	}
	return s.fields[id].name
}

// FieldType returns the value type of field id.
func (s *Scene) FieldType(id int) FieldType {
	if !s.validField(id) {
		return FieldTypeNone
	}
	return s.fields[id].fieldType
}

// FieldSize returns the number of entries in field id.
func (s *Scene) FieldSize(id int) int {
	if !s.validField(id) {
		return 0
	}
	return len(s.fields[id].mapping)
}

// Mapping returns the object handles of field id. The returned slice is
// shared with the scene and must not be modified.
func (s *Scene) Mapping(id int) []uint64 {
	if !s.validField(id) {
		return nil
	}
	return s.fields[id].mapping
}

// FindFieldObject returns the entry index of object in field id. When the
// object has several entries the last one is returned.
func (s *Scene) FindFieldObject(id int, object uint64) (int, bool) {
	if !s.validField(id) {
		return -1, false
	}
	m := s.fields[id].mapping
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] == object {
			return i, true
		}
	}
	return -1, false
}

func (s *Scene) validField(id int) bool {
	return id >= 0 && id < len(s.fields)
}

// FieldValues returns the values of field id as a []T. The returned slice is
// shared with the scene. It fails with ErrFieldNotFound for an unknown id and
// ErrFieldType when the values are not of type T.
func FieldValues[T any](s *Scene, id int) ([]T, error) {
	if !s.validField(id) {
		return nil, fmt.Errorf("arbor: FieldValues: index %d out of range for %d fields: %w", id, len(s.fields), ErrFieldNotFound)
	}
	f := &s.fields[id]
	values, ok := f.values.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("arbor: FieldValues: field %v holds %v, not %T: %w", f.name, f.fieldType, zero, ErrFieldType)
	}
	return values, nil
}

