package marshaler

// String marshals and unmarshals the built-in string type by performing a Go
// type-conversion.
var String = New(
	func(v string) ([]byte, error) {
		return []byte(v), nil
	},
	func(data []byte) (string, error) {
		return string(data), nil
	},
)
