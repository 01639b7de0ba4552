package directory

import (
	"testing"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestAnnouncement_RoundTrip(t *testing.T) {
	tcp := ma.StringCast("/ip4/127.0.0.1/tcp/4001")
	quic := ma.StringCast("/ip6/::1/udp/4001/quic-v1")

	cases := []struct {
		name string
		ann  FileAnnouncement
	}{
		{"no addrs", FileAnnouncement{Filename: "report.pdf"}},
		{"empty filename", FileAnnouncement{Addrs: [][]byte{tcp.Bytes()}}},
		{"unicode filename", FileAnnouncement{Filename: "报告-✓.txt", Addrs: [][]byte{tcp.Bytes()}}},
		{"ordered addrs", FileAnnouncement{Filename: "a", Addrs: [][]byte{quic.Bytes(), tcp.Bytes()}}},
		{"empty addr entry", FileAnnouncement{Filename: "b", Addrs: [][]byte{{}, tcp.Bytes()}}},
		{"zero value", FileAnnouncement{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(Encode(&tc.ann))
			require.NoError(t, err)
			assert.Equal(t, tc.ann.Filename, got.Filename)
			require.Len(t, got.Addrs, len(tc.ann.Addrs))
			for i := range tc.ann.Addrs {
				assert.Equal(t, len(tc.ann.Addrs[i]), len(got.Addrs[i]))
				assert.Equal(t, string(tc.ann.Addrs[i]), string(got.Addrs[i]))
			}
		})
	}
}

func TestAnnouncement_LengthPrefix(t *testing.T) {
	a := &FileAnnouncement{Filename: "report.pdf"}
	data := Encode(a)

	length, n, err := varint.FromUvarint(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)-n), length)
	assert.Equal(t, a.Marshal(), data[n:])
}

func TestDecode_TrailingBytesIgnored(t *testing.T) {
	data := Encode(&FileAnnouncement{Filename: "x"})
	data = append(data, 0xFF, 0xFF)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Filename)
}

func TestDecode_Errors(t *testing.T) {
	valid := Encode(&FileAnnouncement{Filename: "report.pdf"})

	invalidUTF8 := protowire.AppendTag(nil, fieldFilename, protowire.BytesType)
	invalidUTF8 = protowire.AppendBytes(invalidUTF8, []byte{0xff, 0xfe})

	wrongType := protowire.AppendTag(nil, fieldFilename, protowire.VarintType)
	wrongType = protowire.AppendVarint(wrongType, 7)

	cases := map[string][]byte{
		"empty payload":       nil,
		"truncated prefix":    {0x80},
		"length past end":     valid[:len(valid)-1],
		"invalid utf8":        append(varint.ToUvarint(uint64(len(invalidUTF8))), invalidUTF8...),
		"wrong wire type":     append(varint.ToUvarint(uint64(len(wrongType))), wrongType...),
		"truncated field":     {0x02, 0x0a, 0x05},
		"non-minimal prefix":  {0x81, 0x00},
		"garbage record body": {0x01, 0xff},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(data)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Nil(t, got)
		})
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	record := protowire.AppendTag(nil, 9, protowire.VarintType)
	record = protowire.AppendVarint(record, 42)
	record = protowire.AppendTag(record, fieldFilename, protowire.BytesType)
	record = protowire.AppendString(record, "kept.txt")

	got, err := Decode(append(varint.ToUvarint(uint64(len(record))), record...))
	require.NoError(t, err)
	assert.Equal(t, "kept.txt", got.Filename)
	assert.Nil(t, got.Addrs)
}

func TestDecode_CopiesAddrs(t *testing.T) {
	data := Encode(&FileAnnouncement{Filename: "f", Addrs: [][]byte{{1, 2, 3}}})
	got, err := Decode(data)
	require.NoError(t, err)

	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, []byte{1, 2, 3}, got.Addrs[0])
}
