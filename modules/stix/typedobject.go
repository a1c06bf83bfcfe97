package stix

// TypedObject is anything in the graph that has a static type name tag.
// Implement ObjectType on the value receiver, the zero value is used to read the tag.
type TypedObject interface {
	ObjectType() string
}

// Object is a decoded STIX object
type Object interface {
	TypedObject
	Common() *CommonProperties
}

// TypeName returns the type tag of T without needing an instance
func TypeName[T TypedObject]() string {
	var t T
	return t.ObjectType()
}
