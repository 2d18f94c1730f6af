package models

// Language is the user's reading language.
type Language string

const (
	LanguageZH Language = "zh"
	LanguageEN Language = "en"
)

// Dialect selects a regional voice. Only Chinese has dialects.
type Dialect string

const (
	DialectMandarin     Dialect = "mandarin"
	DialectCantonese    Dialect = "cantonese"
	DialectSichuanese   Dialect = "sichuanese"
	DialectShanghainese Dialect = "shanghainese"
	DialectBeijing      Dialect = "beijing"
)

type languageProfile struct {
	prompt    string
	voice     string
	speechTag string
	dialects  map[Dialect]dialectProfile
}

type dialectProfile struct {
	voice     string
	speechTag string
}

var languages = map[Language]languageProfile{
	LanguageZH: {
		prompt:    "请识别图中文字内容，并将其总结成一份简洁、易懂、口语化的使用说明，避免专业术语，并提供朗读。",
		voice:     "Cherry",
		speechTag: "zh-CN",
		dialects: map[Dialect]dialectProfile{
			DialectMandarin:     {voice: "Cherry", speechTag: "zh-CN"},
			DialectCantonese:    {voice: "Rocky", speechTag: "zh-HK"},
			DialectSichuanese:   {voice: "Sunny", speechTag: "zh-CN"},
			DialectShanghainese: {voice: "Jada", speechTag: "zh-CN"},
			DialectBeijing:      {voice: "Dylan", speechTag: "zh-CN"},
		},
	},
	LanguageEN: {
		prompt: "Please identify the text content in the image and summarize it into a concise, easy-to-understand, " +
			"conversational usage guide. Avoid technical jargon and provide clear explanations. " +
			"This is for an English-speaking user.",
		voice:     "Ethan",
		speechTag: "en-US",
	},
}

// Supported reports whether l has a profile.
func (l Language) Supported() bool {
	_, ok := languages[l]
	return ok
}

// DefaultPrompt is the instruction sent when the user gives none.
func (l Language) DefaultPrompt() string {
	return languages[l].prompt
}

// SupportsDialect reports whether d is a known dialect of l.
func (l Language) SupportsDialect(d Dialect) bool {
	_, ok := languages[l].dialects[d]
	return ok
}

// Voice picks the model voice for l, preferring the dialect voice when set.
func Voice(l Language, d Dialect) string {
	p := languages[l]
	if dp, ok := p.dialects[d]; ok {
		return dp.voice
	}
	return p.voice
}

// SpeechTag is the BCP 47 tag handed to the local speech synthesizer.
func SpeechTag(l Language, d Dialect) string {
	p := languages[l]
	if dp, ok := p.dialects[d]; ok {
		return dp.speechTag
	}
	return p.speechTag
}
