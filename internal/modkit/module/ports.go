package module

import "reflect"

// PortsOf pulls T out of a module's Ports() bundle without using the registry.
// The bundle itself may implement T, or one of its exported fields may (struct or
// pointer to struct). ok is false when nothing matches
func PortsOf[T any](m Module) (T, bool) { return portOf[T](m.Ports()) }

func portOf[T any](p any) (t T, ok bool) {
	if p == nil {
		return t, false
	}
	if v, ok2 := p.(T); ok2 {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return t, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return t, false
	}
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok2 := f.Interface().(T); ok2 {
			return v, true
		}
	}
	return t, false
}

// MustPortsOf is PortsOf that panics naming the module
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	var zero T
	panic("module: " + m.Name() + " has no port of type " + reflect.TypeOf(&zero).Elem().String())
}
