//go:build windows

package actuators

func nativeSynthesize(text, voice string) ([]byte, error) { return powershellSay(text) }
