// Package ext provides the Go implementations of the built-in members
// declared by the dialect catalogs.
//
// The implementations live in sub-packages grouped by category:
//   - extstring  – length, indexOf, slice, substring, split, replace, …
//   - extarray   – length, indexOf, includes, join, slice, concat
//   - extnumeric – toFixed, toString, parseInt, parseFloat, abs, min, …
//   - extobject  – keys, values, hasOwnProperty, stringify, parseJSON
//   - exttypes   – String, Boolean, typeOf, isString, isEmpty, …
//
// A catalog decides which members exist in a dialect; Bind attaches an
// implementation to each declared member and ignores the rest.
//
// # Integration
//
//	reg := typesystem.NewRegistry("custom")
//	// declare members...
//	if err := ext.Bind(reg); err != nil {
//	    return err
//	}
//	reg.Seal()
package ext

import (
	"errors"

	"github.com/zhangrenfeng/axexpr/pkg/ext/extarray"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extnumeric"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extobject"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extstring"
	"github.com/zhangrenfeng/axexpr/pkg/ext/exttypes"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// All returns every built-in implementation.
func All() []functions.Entry {
	var all []functions.Entry
	all = append(all, extstring.All()...)
	all = append(all, extarray.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extobject.All()...)
	all = append(all, exttypes.All()...)
	return all
}

// Bind attaches the built-in implementations to the members reg declares.
// Implementations of undeclared members are skipped; any other binding
// error is returned.
func Bind(reg functions.Binder) error {
	return BindEntries(reg, All()...)
}

// BindEntries is like Bind for a chosen set of entries.
func BindEntries(reg functions.Binder, entries ...functions.Entry) error {
	for _, e := range entries {
		err := functions.BindAll(reg, e)
		if err != nil && !errors.Is(err, typesystem.ErrUnknownMember) && !errors.Is(err, typesystem.ErrUnknownType) {
			return err
		}
	}
	return nil
}
