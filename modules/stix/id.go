package stix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

var ErrInvalidId = errors.New("invalid STIX identifier")

const idSeparator = "--"

// Id is a STIX identifier in the form <object-type>--<uuid>
type Id string

func NewId(objecttype string) Id {
	u, _ := uuid.NewV4()
	return Id(objecttype + idSeparator + u.String())
}

// ObjectType returns the type name tag of the object this identifier refers to
func (id Id) ObjectType() string {
	objecttype, _, _ := strings.Cut(string(id), idSeparator)
	return objecttype
}

func (id Id) UUID() (uuid.UUID, error) {
	_, rest, found := strings.Cut(string(id), idSeparator)
	if !found {
		return uuid.Nil, fmt.Errorf("%w: %q has no %q separator", ErrInvalidId, id, idSeparator)
	}
	u, err := uuid.FromString(rest)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %v", ErrInvalidId, id, err)
	}
	return u, nil
}

// Validate checks the shape of the identifier, not that the object exists
func (id Id) Validate() error {
	if id.ObjectType() == "" {
		return fmt.Errorf("%w: %q has no object type", ErrInvalidId, id)
	}
	_, err := id.UUID()
	return err
}

func (id Id) IsZero() bool {
	return id == ""
}

func (id Id) String() string {
	return string(id)
}

// UnmarshalJSON requires a non-empty string, the shape is left to Validate
func (id *Id) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s is not a string", ErrInvalidId, data)
	}
	if s == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidId)
	}
	*id = Id(s)
	return nil
}
