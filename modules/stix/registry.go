package stix

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrNoType       = errors.New("object has no type")
	ErrTypeMismatch = errors.New("object type mismatch")

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// jsoniter flattens errors returned from UnmarshalJSON into strings, so
// kinds with their own decoder are called directly to keep the error chain
type selfDecoder interface {
	UnmarshalJSON([]byte) error
}

func unmarshal(data []byte, o any) error {
	if sd, ok := o.(selfDecoder); ok {
		return sd.UnmarshalJSON(data)
	}
	return json.Unmarshal(data, o)
}

type objectFactory func() Object

var (
	objectKinds      = make(map[string]objectFactory)
	objectKindsMutex sync.RWMutex
)

func init() {
	RegisterObjectType[AttackPattern]()
	RegisterObjectType[Malware]()
	RegisterObjectType[Tool]()
	RegisterObjectType[IntrusionSet]()
	RegisterObjectType[Campaign]()
	RegisterObjectType[CourseOfAction]()
	RegisterObjectType[Tactic]()
	RegisterObjectType[Identity]()
	RegisterObjectType[MarkingDefinition]()
	RegisterObjectType[Relationship]()
}

// RegisterObjectType makes T decodable by Decode under T's type tag. Registering a
// tag twice replaces the previous kind.
func RegisterObjectType[T TypedObject, PT interface {
	*T
	Object
}]() {
	name := TypeName[T]()
	objectKindsMutex.Lock()
	objectKinds[name] = func() Object {
		return PT(new(T))
	}
	objectKindsMutex.Unlock()
}

func IsRegistered(objecttype string) bool {
	objectKindsMutex.RLock()
	_, found := objectKinds[objecttype]
	objectKindsMutex.RUnlock()
	return found
}

func RegisteredTypes() []string {
	objectKindsMutex.RLock()
	result := make([]string, 0, len(objectKinds))
	for name := range objectKinds {
		result = append(result, name)
	}
	objectKindsMutex.RUnlock()
	sort.Strings(result)
	return result
}

// PeekType reads the "type" property of a raw object without decoding the rest
func PeekType(data []byte) string {
	return json.Get(data, "type").ToString()
}

// Decode turns one raw STIX object into its registered kind. Unregistered types
// are returned as *GenericObject.
func Decode(data []byte) (Object, error) {
	objecttype := PeekType(data)
	if objecttype == "" {
		return nil, ErrNoType
	}

	objectKindsMutex.RLock()
	factory, found := objectKinds[objecttype]
	objectKindsMutex.RUnlock()

	var o Object
	if found {
		o = factory()
	} else {
		o = &GenericObject{}
	}
	if err := unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("decoding %v: %w", objecttype, err)
	}
	return o, nil
}

// DecodeAs decodes into a specific registered kind, failing if the type tag differs
func DecodeAs[T TypedObject, PT interface {
	*T
	Object
}](data []byte) (*T, error) {
	want := TypeName[T]()
	if got := PeekType(data); got != want {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrTypeMismatch, want, got)
	}
	var t T
	if err := unmarshal(data, PT(&t)); err != nil {
		return nil, fmt.Errorf("decoding %v: %w", want, err)
	}
	return &t, nil
}

func Encode(o Object) ([]byte, error) {
	return json.Marshal(o)
}
