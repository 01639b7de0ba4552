package directory

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/multiformats/go-varint"
	"google.golang.org/protobuf/encoding/protowire"
)

// 错误定义
var (
	// ErrDecode 公告解码失败
	ErrDecode = errors.New("directory: invalid announcement")
)

const (
	fieldFilename protowire.Number = 1
	fieldAddrs    protowire.Number = 2
)

// FileAnnouncement 文件公告
type FileAnnouncement struct {
	// Filename 文件名（提供方注册时使用的最后一段路径）
	Filename string

	// Addrs 提供方监听地址的二进制编码，保持顺序
	Addrs [][]byte
}

// Marshal 编码为 protobuf 记录（不含长度前缀）
func (a *FileAnnouncement) Marshal() []byte {
	size := 0
	if a.Filename != "" {
		size += protowire.SizeTag(fieldFilename) + protowire.SizeBytes(len(a.Filename))
	}
	for _, addr := range a.Addrs {
		size += protowire.SizeTag(fieldAddrs) + protowire.SizeBytes(len(addr))
	}

	b := make([]byte, 0, size)
	if a.Filename != "" {
		b = protowire.AppendTag(b, fieldFilename, protowire.BytesType)
		b = protowire.AppendString(b, a.Filename)
	}
	for _, addr := range a.Addrs {
		b = protowire.AppendTag(b, fieldAddrs, protowire.BytesType)
		b = protowire.AppendBytes(b, addr)
	}
	return b
}

// Unmarshal 解析 protobuf 记录
//
// 未知字段会被跳过；已知字段的线类型不符或字符串不是 UTF-8 则失败。
func (a *FileAnnouncement) Unmarshal(b []byte) error {
	var out FileAnnouncement
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldFilename && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: filename: %v", ErrDecode, protowire.ParseError(n))
			}
			if !utf8.Valid(v) {
				return fmt.Errorf("%w: filename is not valid UTF-8", ErrDecode)
			}
			out.Filename = string(v)
			b = b[n:]
		case num == fieldAddrs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: addrs: %v", ErrDecode, protowire.ParseError(n))
			}
			out.Addrs = append(out.Addrs, bytes.Clone(v))
			b = b[n:]
		case num == fieldFilename || num == fieldAddrs:
			return fmt.Errorf("%w: field %d has wire type %d", ErrDecode, num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	*a = out
	return nil
}

// Encode 编码为带 uvarint 长度前缀的 gossip 负载
func Encode(a *FileAnnouncement) []byte {
	record := a.Marshal()
	prefix := varint.ToUvarint(uint64(len(record)))
	return append(prefix, record...)
}

// Decode 解析 gossip 负载
//
// 先按长度前缀截取记录，再解析记录；前缀之后多余的字节被忽略。
func Decode(data []byte) (*FileAnnouncement, error) {
	length, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("%w: length prefix: %v", ErrDecode, err)
	}
	rest := data[n:]
	if length > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: length %d exceeds payload %d", ErrDecode, length, len(rest))
	}

	a := &FileAnnouncement{}
	if err := a.Unmarshal(rest[:length]); err != nil {
		return nil, err
	}
	return a, nil
}
