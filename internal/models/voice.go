package models

// Voice 表示一个语音合成声音
type Voice struct {
	ID               string   `json:"id"`                          // 语音唯一标识符，如 Joanna
	Name             string   `json:"name"`                        // 显示名称
	Gender           string   `json:"gender"`                      // 性别: Female, Male
	LanguageCode     string   `json:"language_code"`               // 语言区域, 如 en-US
	LanguageName     string   `json:"language_name"`               // 语言区域显示名称
	SupportedEngines []string `json:"supported_engines,omitempty"` // 支持的引擎: standard, neural
}
