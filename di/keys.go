package di

import (
	"reflect"

	"github.com/kbukum/objectgraph/errors"
)

// Default is the name used to request the default instance of a contract.
const Default = ""

// TypeOf returns the contract for T. Interface types are supported.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// instanceKey identifies an explicit argument or a request.
type instanceKey struct {
	contract reflect.Type
	name     string
}

func contractName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func nameLabel(name string) string {
	return errors.NameLabel(name)
}
