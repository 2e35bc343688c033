package registry

import "strings"

// Unknown is the quantization label used when nothing better is known.
const Unknown = "Unknown"

// GuessQuantization extracts a quantization label from names such as
// "llama-2-7b.Q4_K_M.gguf" -> "Q4_K_M". It returns Unknown when the name
// carries no ".Q<token>." segment.
func GuessQuantization(filename string) string {
	_, rest, ok := strings.Cut(filename, ".Q")
	if !ok {
		return Unknown
	}
	token, _, _ := strings.Cut(rest, ".")
	if token == "" {
		return Unknown
	}
	return "Q" + token
}
