package actuators

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
)

// elevenLabsVoices maps a handful of friendly names to ElevenLabs voice IDs.
var elevenLabsVoices = map[string]string{
	"rachel": "21m00Tcm4TlvDq8ikWAM",
	"domi":   "AZnzlk1XvdvUeBnXmlld",
	"bella":  "EXAVITQu4vr4xnSDxMaL",
	"antoni": "ErXwobaYiN019PkySvjV",
	"adam":   "pNInz6obpgDQGcFmaJgB",
}

// TTS is the text-to-speech actuator. With an ElevenLabs API key configured
// it calls out to the ElevenLabs API; otherwise it shells out to whatever
// native speech synthesizer the host OS provides.
type TTS struct {
	elevenLabsKey string
	voice         string
	httpClient    *http.Client
}

// NewTTS builds a TTS actuator. apiKey may be empty, in which case
// Synthesize always uses the OS-native fallback.
func NewTTS(apiKey, voice string) *TTS {
	return &TTS{elevenLabsKey: apiKey, voice: voice, httpClient: &http.Client{}}
}

// Synthesize renders text to speech and returns it base64-encoded.
func (t *TTS) Synthesize(text string) (string, error) {
	if t.elevenLabsKey != "" {
		data, err := t.elevenLabsSynthesize(text)
		if err == nil {
			return base64.StdEncoding.EncodeToString(data), nil
		}
		// Falls through to the native synthesizer on any ElevenLabs failure
		// (quota, network, auth) rather than surfacing a hard error.
	}

	data, err := nativeSynthesize(text, t.voice)
	if err != nil {
		return "", fmt.Errorf("actuators: synthesize speech: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (t *TTS) elevenLabsSynthesize(text string) ([]byte, error) {
	voiceID := elevenLabsVoices["rachel"]
	if id, ok := elevenLabsVoices[t.voice]; ok {
		voiceID = id
	} else if t.voice != "" {
		voiceID = t.voice
	}

	body, _ := json.Marshal(map[string]any{
		"text":     text,
		"model_id": "eleven_turbo_v2_5",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})

	req, err := http.NewRequest(http.MethodPost,
		"https://api.elevenlabs.io/v1/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", t.elevenLabsKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("actuators: elevenlabs returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func macSay(text, voice string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "agentcore-tts-*.aiff")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if voice == "" {
		voice = "Samantha"
	}
	out, err := exec.Command("say", "-v", voice, "-o", path, text).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("say: %w: %s", err, string(out))
	}
	return os.ReadFile(path)
}

func espeakSay(text string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "agentcore-tts-*.wav")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	out, err := exec.Command("espeak", "-w", path, text).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, string(out))
	}
	return os.ReadFile(path)
}

func powershellSay(text string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "agentcore-tts-*.wav")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	script := fmt.Sprintf(`Add-Type -AssemblyName System.Speech
$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer
$synth.SetOutputToWaveFile("%s")
$synth.Speak(%q)
$synth.Dispose()
`, path, text)
	out, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("powershell speech synthesizer: %w: %s", err, string(out))
	}
	return os.ReadFile(path)
}
