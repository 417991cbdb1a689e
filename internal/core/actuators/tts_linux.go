//go:build linux

package actuators

func nativeSynthesize(text, voice string) ([]byte, error) { return espeakSay(text) }
