// pkg/aop/proxyslot.go
package aop

import (
	"reflect"

	"go.uber.org/zap"
)

// ProxySlotTag is the struct tag marking a field as the back-reference
// slot described in spec.md §6.1: `aop:"proxy"`. User code can then call
// this.slot.OtherPointcut() and have interception re-apply instead of
// bypassing it through a direct reference to the unwrapped target.
const ProxySlotTag = "proxy"

// writeProxySlot writes proxy into target's tagged back-reference field,
// if one exists and is currently unset. Per spec.md's Open Questions
// recommendation, this is write-once: once a proxy has been published,
// later calls are no-ops. Readers of the slot may observe either nil or
// the published proxy; no stronger ordering is required.
func writeProxySlot(target interface{}, proxy interface{}, log *zap.SugaredLogger) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}

	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if tag, ok := field.Tag.Lookup("aop"); !ok || tag != ProxySlotTag {
			continue
		}
		fv := elem.Field(i)
		if !fv.CanSet() {
			if log != nil {
				log.Warnw("proxy slot field cannot be set", "field", field.Name)
			}
			return
		}
		if !fv.IsNil() {
			return // write-once: already published
		}
		pv := reflect.ValueOf(proxy)
		if !pv.Type().AssignableTo(field.Type) {
			if log != nil {
				log.Warnw("proxy value not assignable to proxy slot", "field", field.Name, "fieldType", field.Type, "proxyType", pv.Type())
			}
			return
		}
		fv.Set(pv)
		return
	}
}

// HasProxySlot reports whether t (a struct type, or pointer to one)
// declares a back-reference field.
func HasProxySlot(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup("aop"); ok && tag == ProxySlotTag {
			return true
		}
	}
	return false
}
