package workflow

import "fmt"

// TypeTag identifies the declared type of a workflow input.
// The set is closed: resolution code switches exhaustively over these
// constants, so adding a tag means touching every switch.
type TypeTag string

const (
	TypeString            TypeTag = "string"
	TypeInteger           TypeTag = "integer"
	TypeFloat             TypeTag = "float"
	TypeBoolean           TypeTag = "boolean"
	TypeStructuredDataset TypeTag = "structured_dataset"
)

// String returns the string representation of the type tag.
func (t TypeTag) String() string {
	return string(t)
}

// ParseTypeTag converts a declared type string to a TypeTag.
// Unknown strings are rejected so scripts fail at import time,
// not at argument-resolution time.
func ParseTypeTag(s string) (TypeTag, error) {
	switch TypeTag(s) {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeStructuredDataset:
		return TypeTag(s), nil
	}
	return "", fmt.Errorf("unknown input type %q", s)
}

// Interface is a workflow's declared input schema: input name to type tag.
type Interface struct {
	Inputs map[string]TypeTag `json:"inputs"`
}

// StructuredDataset is an abstract reference to tabular data. The data
// itself lives at URI (an internal storage address issued by the service);
// it is never inlined as a value.
type StructuredDataset struct {
	URI string `json:"uri"`
}

// UploadLocation is a pair of URIs issued by the service for staging a
// single file: NativeURL is the internal storage address the service will
// read from, SignedURL is a short-lived externally-writable address.
type UploadLocation struct {
	NativeURL string `json:"native_url"`
	SignedURL string `json:"signed_url"`
}
