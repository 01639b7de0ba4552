package fileexchange

import (
	"errors"
	"fmt"
	"io"
)

// 错误定义
var (
	// ErrFrameTooLarge 帧长度超过上限
	ErrFrameTooLarge = errors.New("fileexchange: frame too large")

	// ErrEmptyFrame 长度为 0 的帧
	ErrEmptyFrame = fmt.Errorf("fileexchange: empty frame: %w", io.ErrUnexpectedEOF)

	// ErrInvalidLength 长度前缀不是合法的 uvarint
	ErrInvalidLength = errors.New("fileexchange: invalid length prefix")
)
