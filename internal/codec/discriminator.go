// internal/codec/discriminator.go
package codec

import "crypto/sha256"

// DiscriminatorLength is the size of the Anchor record and method selector.
const DiscriminatorLength = 8

// Sighash returns the first 8 bytes of sha256("<namespace>:<name>").
func Sighash(namespace, name string) []byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	out := make([]byte, DiscriminatorLength)
	copy(out, sum[:DiscriminatorLength])
	return out
}

// AccountDiscriminator returns the selector of an account record type, e.g. "BuyerStateV3".
func AccountDiscriminator(name string) []byte {
	return Sighash("account", name)
}

// InstructionDiscriminator returns the selector of a snake_case method name.
func InstructionDiscriminator(method string) []byte {
	return Sighash("global", method)
}
