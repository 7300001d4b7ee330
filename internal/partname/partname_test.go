package partname

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/getfile/internal/domain"
)

func TestEncode_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		length  int64
		modUnix int64
		want    string
	}{
		{"zero length keeps one byte", 0, 0, "file.bin.AA.AA.gf#"},
		{"slash becomes dash", 255, 1700000000, "file.bin.-w.ZVPxAA.gf#"},
		{"two bytes with plus", 1000, 1700000000, "file.bin.A+g.ZVPxAA.gf#"},
		{"two byte max", 65535, 1709294400, "file.bin.--8.ZeHDQA.gf#"},
		{"max int64", math.MaxInt64, 4294967295, "file.bin.f---------8.-----w.gf#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode("file.bin", tt.length, time.Unix(tt.modUnix, 0))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Encode("/data/x.iso", 123456789, mod)
	b := Encode("/data/x.iso", 123456789, mod.Local())
	assert.Equal(t, a, b, "time zone must not affect the name")

	id := domain.PartialFileIdentity{TargetPath: "/data/x.iso", Length: 123456789, ModTime: mod}
	assert.Equal(t, a, EncodeIdentity(id))
}

func TestEncode_Injective(t *testing.T) {
	lengths := []int64{0, 1, 2, 127, 128, 255, 256, 1000, 65535, 65536, 1 << 24, 1<<32 - 1, 1 << 32, 1 << 40, 1 << 56, math.MaxInt64 - 1, math.MaxInt64}
	mods := []int64{0, 1, 255, 256, 65536, 1 << 24, 1700000000, 1700000001, math.MaxInt32, 1<<32 - 1}

	seen := make(map[string][2]int64)
	for _, l := range lengths {
		for _, m := range mods {
			name := Encode("f", l, time.Unix(m, 0))
			if prev, ok := seen[name]; ok {
				t.Fatalf("collision: (%d,%d) and (%d,%d) both encode to %s", prev[0], prev[1], l, m, name)
			}
			seen[name] = [2]int64{l, m}
		}
	}
}

func TestDecode_InvertsEncode(t *testing.T) {
	lengths := []int64{0, 1, 1000, 1 << 33, math.MaxInt64}
	mods := []int64{0, 86400, 1700000000, 1<<32 - 1}

	for _, l := range lengths {
		for _, m := range mods {
			name := Encode("/tmp/dir.with.dots/file.tar.gz", l, time.Unix(m, 0))
			id, err := Decode(name)
			require.NoError(t, err, name)
			assert.Equal(t, "/tmp/dir.with.dots/file.tar.gz", id.TargetPath)
			assert.Equal(t, l, id.Length)
			assert.Equal(t, m, id.ModTime.Unix())
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	names := []string{
		"file.bin",
		"file.bin.gf#",
		"file.bin.AA.gf#",
		"file.bin.A*g.AA.gf#",
		// a single base64 character cannot hold a byte
		"file.bin.A.AA.gf#",
		// leading zero byte
		"file.bin.AAE.AA.gf#",
		// nine bytes
		"file.bin.AQAAAAAAAAAA.AA.gf#",
		// five bytes for a 32-bit time
		"file.bin.AA.AQAAAAA.gf#",
		// non-zero padding bits
		"file.bin.gA.AB.gf#",
		// overflows int64
		"file.bin.gAAAAAAAAAA.AA.gf#",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedName))

			var fe *domain.FormatError
			assert.True(t, errors.As(err, &fe))
			assert.Equal(t, name, fe.Input)
		})
	}
}

func TestGenericAndIsPartial(t *testing.T) {
	assert.Equal(t, "/a/b.zip.gf#", Generic("/a/b.zip"))
	assert.True(t, IsPartial(Generic("/a/b.zip")))
	assert.True(t, IsPartial(Encode("b.zip", 10, time.Unix(10, 0))))
	assert.False(t, IsPartial("b.zip"))
	assert.False(t, IsPartial("b.gf#.zip"))
}
