package utils

// ToPtr returns a pointer to v. Handy for populating optional fields
// on request and response types.
func ToPtr[T any](v T) *T {
	return &v
}
