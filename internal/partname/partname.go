// Package partname encodes the remote identity of a download into the name
// of its partial file.
//
// A resumable partial file is named
//
//	{target}.{len}.{mod}.gf#
//
// where len is the 64-bit content length and mod the 32-bit Unix
// modification time, each written big-endian with leading zero bytes
// stripped and encoded with the standard base64 alphabet ('/' replaced by
// '-', no padding). A download that cannot be resumed uses {target}.gf#.
package partname

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/vertextoedge/getfile/internal/domain"
)

// Extension is reserved for partial files written by the downloader
const Extension = "gf#"

// ErrMalformedName is wrapped by every Decode failure
var ErrMalformedName = errors.New("not an encoded partial file name")

var namePattern = regexp.MustCompile(`^(.+)\.([-+a-zA-Z0-9]+)\.([-+a-zA-Z0-9]+)\.` + regexp.QuoteMeta(Extension) + `$`)

// Encode returns the partial file name bound to (length, modTime)
func Encode(targetPath string, length int64, modTime time.Time) string {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(length))

	var modBuf [4]byte
	binary.BigEndian.PutUint32(modBuf[:], uint32(modTime.Unix()))

	return strings.Join([]string{targetPath, encode(lenBuf[:]), encode(modBuf[:]), Extension}, ".")
}

// EncodeIdentity is Encode for a PartialFileIdentity
func EncodeIdentity(id domain.PartialFileIdentity) string {
	return Encode(id.TargetPath, id.Length, id.ModTime)
}

// Generic returns the identity-free partial name used when resume is not possible
func Generic(targetPath string) string {
	return targetPath + "." + Extension
}

// IsPartial reports whether name carries the partial file extension
func IsPartial(name string) bool {
	return strings.HasSuffix(name, "."+Extension)
}

// Decode is the inverse of Encode. Names that Encode could not have
// produced return a *domain.FormatError wrapping ErrMalformedName.
func Decode(name string) (domain.PartialFileIdentity, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return domain.PartialFileIdentity{}, malformed(name, ErrMalformedName)
	}

	length, err := decode(m[2], 8)
	if err == nil && length > math.MaxInt64 {
		err = errors.New("length overflows int64")
	}
	if err != nil {
		return domain.PartialFileIdentity{}, malformed(name, fmt.Errorf("%w: length: %v", ErrMalformedName, err))
	}
	mod, err := decode(m[3], 4)
	if err != nil {
		return domain.PartialFileIdentity{}, malformed(name, fmt.Errorf("%w: modification time: %v", ErrMalformedName, err))
	}

	return domain.PartialFileIdentity{
		TargetPath: m[1],
		Length:     int64(length),
		ModTime:    time.Unix(int64(mod), 0).Local(),
	}, nil
}

// encode strips leading zero bytes (keeping at least one) and base64-encodes the rest
func encode(b []byte) string {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b[i:]), "/", "-")
}

func decode(s string, maxBytes int) (uint64, error) {
	b, err := base64.RawStdEncoding.Strict().DecodeString(strings.ReplaceAll(s, "-", "/"))
	if err != nil {
		return 0, err
	}
	switch {
	case len(b) == 0:
		return 0, errors.New("empty value")
	case len(b) > maxBytes:
		return 0, fmt.Errorf("%d bytes exceeds %d", len(b), maxBytes)
	case len(b) > 1 && b[0] == 0:
		return 0, errors.New("leading zero byte")
	}

	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

func malformed(name string, err error) error {
	return &domain.FormatError{Kind: "partial file name", Input: name, Err: err}
}
