//go:build darwin

package actuators

func nativeSynthesize(text, voice string) ([]byte, error) { return macSay(text, voice) }
