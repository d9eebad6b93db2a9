package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// CalculateMD5 calculates the MD5 digest of data and returns it hex encoded.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeETag strips the surrounding quotes S3 puts on ETag values.
func NormalizeETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// IsMultipartETag reports whether etag came from a multipart upload.
// Multipart ETags carry a "-<parts>" suffix and are not plain MD5
// digests, so comparing them against a body digest is unreliable.
func IsMultipartETag(etag string) bool {
	return strings.Contains(NormalizeETag(etag), "-")
}

// Match compares a source-reported ETag against a hex MD5 digest.
func Match(etag, digest string) bool {
	return strings.EqualFold(NormalizeETag(etag), digest)
}
