package models

// SynthesisRequest 表示一次合成请求，RawText 与 FileBytes 二者取其一
type SynthesisRequest struct {
	RawText   *string // JSON 中的 text 字段，nil 表示未提供
	FileBytes []byte  // 上传文件内容
	FileName  string  // 上传文件名，用于判断格式
	VoiceID   string  // 语音ID
}

// HasFile 报告请求是否携带上传文件
func (r SynthesisRequest) HasFile() bool {
	return r.FileName != "" || r.FileBytes != nil
}

// TextRequest 表示 JSON 方式提交的请求体
type TextRequest struct {
	Text  *string `json:"text"`
	Voice string  `json:"voice"`
}

// SynthesisResponse 表示合成成功后的响应
type SynthesisResponse struct {
	AudioURL string `json:"audio_url"`
}

// ErrorResponse 表示失败时的响应体
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
