package pkg

import (
	"os"
	"unsafe"
)

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// PathExists returns whether the given file or directory exists
func PathExists(path string, isDir bool) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if isDir != stat.IsDir() {
		if isDir {
			return false, &os.PathError{Op: "stat", Path: path, Err: errNotDir}
		}
		return false, &os.PathError{Op: "stat", Path: path, Err: errIsDir}
	}
	return true, nil
}
