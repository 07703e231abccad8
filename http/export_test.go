package http

// Exported for testing.
var (
	EncodeImages = encodeImages
	DecodeImages = decodeImages
)
