package errors

import (
	"errors"
	"fmt"
)

// Kind 标识一次失败的类别，HTTP 层据此决定状态码
type Kind string

const (
	KindMissingVoice        Kind = "MissingVoice"
	KindUnsupportedFileType Kind = "UnsupportedFileType"
	KindDocConversion       Kind = "DocConversionError"
	KindExtraction          Kind = "ExtractionError"
	KindNoExtractableText   Kind = "NoExtractableText"
	KindNoInputProvided     Kind = "NoInputProvided"
	KindEmptySynthesisInput Kind = "EmptySynthesisInput"
	KindNoAudioGenerated    Kind = "NoAudioGenerated"
	KindSynthesisBackend    Kind = "SynthesisBackendError"
	KindStorageUpload       Kind = "StorageUploadError"
	KindInvalidInput        Kind = "InvalidInput"
	KindInternal            Kind = "InternalError"
)

// ClientFault 报告该类别是否由调用方输入引起（映射为 400）
func (k Kind) ClientFault() bool {
	switch k {
	case KindMissingVoice, KindUnsupportedFileType, KindDocConversion, KindExtraction, KindNoExtractableText,
		KindNoInputProvided, KindEmptySynthesisInput, KindNoAudioGenerated, KindInvalidInput:
		return true
	}
	return false
}

// Error 是流水线各阶段返回的带类别错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按类别比较；ErrInvalidInput 与 ErrUpstreamServiceFailed 分别匹配所有客户端/服务端类别
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind.ClientFault()
	case ErrUpstreamServiceFailed:
		return !e.Kind.ClientFault()
	}
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New 创建一个指定类别的错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf 创建一个指定类别的格式化错误
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 用 err 的消息创建指定类别的错误并保留原始错误
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf 返回 err 链上第一个 *Error 的类别，未知错误归为 InternalError
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError 把任意错误规范化为 *Error
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindInternal, err)
}

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUpstreamServiceFailed = errors.New("upstream service failed")

	ErrMissingVoice        = New(KindMissingVoice, "No voice selected")
	ErrUnsupportedFileType = New(KindUnsupportedFileType, "Unsupported file type")
	ErrDocBlank            = New(KindDocConversion, "Cannot extract text from this .doc file. Please convert it to .docx.")
	ErrNoExtractableText   = New(KindNoExtractableText, "No extractable text found in PDF. Is it a scanned PDF?")
	ErrNoInputProvided     = New(KindNoInputProvided, "No text or file provided")
	ErrEmptySynthesisInput = New(KindEmptySynthesisInput, "No text to synthesize")
	ErrNoAudioGenerated    = New(KindNoAudioGenerated, "No audio could be generated (empty file?)")
)
