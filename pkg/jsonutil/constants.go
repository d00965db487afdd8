package jsonutil

// MaxPayloadSize bounds a single Unmarshal call (10 MiB): large enough for
// an NVD CVE page or a CNNVD translation batch, small enough to reject a
// malformed or hostile response before it reaches the decoder.
const MaxPayloadSize = 10 * 1024 * 1024
