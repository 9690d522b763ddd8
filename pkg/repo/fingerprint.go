package repo

import (
	"os"
	"reflect"
)

// fileIdentity extracts the device and inode numbers from a FileInfo when
// the platform exposes them. Extraction goes through reflection so the
// package builds on platforms with differently shaped stat structs.
func fileIdentity(info os.FileInfo) (dev, ino uint64, ok bool) {
	sys := info.Sys()
	if sys == nil {
		return 0, 0, false
	}

	v := reflect.ValueOf(sys)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, 0, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, 0, false
	}

	dev, devOK := uintField(v, "Dev")
	ino, inoOK := uintField(v, "Ino")
	if !devOK || !inoOK {
		return 0, 0, false
	}
	return dev, ino, true
}

func uintField(v reflect.Value, name string) (uint64, bool) {
	f := v.FieldByName(name)
	if !f.IsValid() {
		return 0, false
	}
	switch f.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return f.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := f.Int()
		if i < 0 {
			return 0, false
		}
		return uint64(i), true
	default:
		return 0, false
	}
}
