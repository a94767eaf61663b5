// SPDX-License-Identifier: MIT

package config

import (
	"io"

	"gopkg.in/yaml.v3"
)

// newStrictDecoder returns a yaml.v3 decoder that rejects unknown fields,
// so an operator typo in the config file fails the daemon at startup
// instead of being silently ignored.
func newStrictDecoder(r io.Reader) *yaml.Decoder {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec
}
