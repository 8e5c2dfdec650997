// internal/app/system/limits/limits.go
package limits

// Byte limits for uploads and form bodies. These keep oversized requests
// from exhausting memory before validation runs.
const (
	// MaxImageBytes caps a contribution image before processing.
	MaxImageBytes = 5 << 20 // 5 MB

	// MaxDataURLBytes caps the decoded payload of the JSON upload endpoint.
	MaxDataURLBytes = 10 << 20 // 10 MB

	// MaxMultipartFormSize bounds contribution submit form parsing.
	MaxMultipartFormSize = 8 << 20 // 8 MB

	// MaxFormSize bounds plain form submissions (selection, reviews).
	MaxFormSize = 1 << 20 // 1 MB
)
