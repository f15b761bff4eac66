package conversion

import "reflect"

func reflectValueOf(v any) reflect.Value { return reflect.ValueOf(v) }

func reflectSliceOf[T any]() reflect.Type {
	var zero T
	return reflect.SliceOf(reflect.TypeOf(zero))
}
