// ABOUTME: Schema registry mapping Go types to collections and identifier fields
// ABOUTME: Built once with MapperBuilder and read-only afterwards

package docdb

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	objectIDType          = reflect.TypeOf(primitive.ObjectID{})
)

// EntityMapping describes how one Go type is stored.
type EntityMapping struct {
	typ        reflect.Type
	collection string
	idField    string
	idIndex    []int
	autoID     bool
}

// Collection returns the collection name.
func (m *EntityMapping) Collection() string { return m.collection }

// IDField returns the Go name of the identifier field.
func (m *EntityMapping) IDField() string { return m.idField }

// AutoID reports whether zero identifiers are generated on insert.
func (m *EntityMapping) AutoID() bool { return m.autoID }

// id reads the identifier from a pointer to the mapped struct.
func (m *EntityMapping) id(doc any) primitive.ObjectID {
	return reflect.ValueOf(doc).Elem().FieldByIndex(m.idIndex).Interface().(primitive.ObjectID)
}

// setID writes the identifier into a pointer to the mapped struct.
func (m *EntityMapping) setID(doc any, id primitive.ObjectID) {
	reflect.ValueOf(doc).Elem().FieldByIndex(m.idIndex).Set(reflect.ValueOf(id))
}

// Mapper is an immutable schema registry.
type Mapper struct {
	registry *bsoncodec.Registry
	byType   map[reflect.Type]*EntityMapping
}

// Mapping returns the mapping for t, which may be a struct or a pointer to one.
func (m *Mapper) Mapping(t reflect.Type) (*EntityMapping, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	mapping, ok := m.byType[t]
	return mapping, ok
}

// Collections returns the mapped collection names in sorted order.
func (m *Mapper) Collections() []string {
	names := make([]string, 0, len(m.byType))
	for _, mapping := range m.byType {
		names = append(names, mapping.collection)
	}
	sort.Strings(names)
	return names
}

func (m *Mapper) encode(doc any) ([]byte, error) {
	return bson.MarshalWithRegistry(m.registry, doc)
}

func (m *Mapper) decode(data []byte, doc any) error {
	return bson.UnmarshalWithRegistry(m.registry, data, doc)
}

// MapperBuilder collects entity mappings. Errors are reported by Build.
type MapperBuilder struct {
	entities []*EntityMapping
	errs     []error
}

// NewMapperBuilder returns an empty builder.
func NewMapperBuilder() *MapperBuilder {
	return &MapperBuilder{}
}

// Entity maps the type of prototype (a struct or pointer to struct) to a
// collection. idField names the struct field holding the primitive.ObjectID;
// it must be tagged bson:"_id". When autoID is set, Insert generates an
// identifier for documents whose identifier is zero.
func (b *MapperBuilder) Entity(prototype any, collection, idField string, autoID bool) *MapperBuilder {
	t := reflect.TypeOf(prototype)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		b.errs = append(b.errs, fmt.Errorf("collection %q: prototype must be a struct, got %T", collection, prototype))
		return b
	}
	if !collectionNamePattern.MatchString(collection) {
		b.errs = append(b.errs, fmt.Errorf("%s: invalid collection name %q", t.Name(), collection))
		return b
	}

	field, ok := t.FieldByName(idField)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%s: no field %q", t.Name(), idField))
		return b
	}
	if field.Type != objectIDType {
		b.errs = append(b.errs, fmt.Errorf("%s.%s: identifier must be primitive.ObjectID, got %s", t.Name(), idField, field.Type))
		return b
	}
	if name, _, _ := strings.Cut(field.Tag.Get("bson"), ","); name != "_id" {
		b.errs = append(b.errs, fmt.Errorf("%s.%s: identifier must be tagged bson:\"_id\"", t.Name(), idField))
		return b
	}

	b.entities = append(b.entities, &EntityMapping{
		typ:        t,
		collection: collection,
		idField:    idField,
		idIndex:    field.Index,
		autoID:     autoID,
	})
	return b
}

// Build validates the collected mappings and returns the Mapper.
func (b *MapperBuilder) Build() (*Mapper, error) {
	errs := append([]error(nil), b.errs...)

	byType := make(map[reflect.Type]*EntityMapping, len(b.entities))
	seen := make(map[string]reflect.Type, len(b.entities))
	for _, e := range b.entities {
		if _, dup := byType[e.typ]; dup {
			errs = append(errs, fmt.Errorf("%s mapped more than once", e.typ.Name()))
			continue
		}
		if other, dup := seen[strings.ToLower(e.collection)]; dup {
			errs = append(errs, fmt.Errorf("collection %q used by both %s and %s", e.collection, other.Name(), e.typ.Name()))
			continue
		}
		byType[e.typ] = e
		seen[strings.ToLower(e.collection)] = e.typ
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building mapper: %w", err)
	}

	return &Mapper{
		registry: bson.NewRegistry(),
		byType:   byType,
	}, nil
}
