package model

import "strings"

const DefaultAudioMIMEType = "audio/webm"

type Audio struct {
	Data     []byte
	MIMEType string
	FileName string
}

func NewAudio(data []byte, mimeType string) Audio {
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}
	return Audio{
		Data:     data,
		MIMEType: mimeType,
		FileName: "recording." + AudioExtension(mimeType),
	}
}

func AudioExtension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return "wav"
	case strings.Contains(mimeType, "mp3"):
		return "mp3"
	case strings.Contains(mimeType, "mp4"):
		return "m4a"
	default:
		return "webm"
	}
}
