package fileexchange

import (
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// closeWriter 支持半关闭的流（libp2p network.Stream 满足该接口）
type closeWriter interface {
	CloseWrite() error
}

// Codec 文件交换帧编解码器
//
// 请求和响应两个方向相互独立，各自有长度上限。
type Codec struct {
	cfg Config
}

// NewCodec 创建编解码器
func NewCodec(opts ...Option) *Codec {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Codec{cfg: cfg}
}

// Config 返回当前配置
func (c *Codec) Config() Config {
	return c.cfg
}

// ReadRequest 从流中读取请求帧
func (c *Codec) ReadRequest(r io.Reader) ([]byte, error) {
	return readFrame(r, c.cfg.MaxRequestSize)
}

// ReadResponse 从流中读取响应帧
func (c *Codec) ReadResponse(r io.Reader) ([]byte, error) {
	return readFrame(r, c.cfg.MaxResponseSize)
}

// WriteRequest 写入请求帧并关闭写端
func (c *Codec) WriteRequest(w io.Writer, data []byte) error {
	return writeFrame(w, data, c.cfg.MaxRequestSize)
}

// WriteResponse 写入响应帧并关闭写端
func (c *Codec) WriteResponse(w io.Writer, data []byte) error {
	return writeFrame(w, data, c.cfg.MaxResponseSize)
}

func readFrame(r io.Reader, limit int) ([]byte, error) {
	length, err := varint.ReadUvarint(byteReader{r})
	if err != nil {
		if errors.Is(err, varint.ErrOverflow) || errors.Is(err, varint.ErrNotMinimal) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLength, err)
		}
		return nil, fmt.Errorf("failed to read length: %w", err)
	}
	if length == 0 {
		return nil, ErrEmptyFrame
	}
	if length > uint64(limit) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, limit)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

func writeFrame(w io.Writer, data []byte, limit int) error {
	if len(data) == 0 {
		return ErrEmptyFrame
	}
	if len(data) > limit {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(data), limit)
	}

	if _, err := w.Write(varint.ToUvarint(uint64(len(data)))); err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if cw, ok := w.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil {
			return fmt.Errorf("failed to close write side: %w", err)
		}
	}
	return nil
}

// byteReader 逐字节读取，不会多读长度前缀之后的负载
type byteReader struct {
	r io.Reader
}

func (b byteReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
